package content

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var embeddedLibrary []byte

type library struct {
	Items []Item `yaml:"items"`
}

// Embedded returns the built-in catalog in its authored order.
func Embedded() ([]Item, error) {
	items, err := parseLibrary(embeddedLibrary)
	if err != nil {
		return nil, fmt.Errorf("embedded library: %w", err)
	}
	return items, nil
}

// parseLibrary decodes a yaml catalog and fills the fields authors may omit.
// Categories are stored in canonical form.
func parseLibrary(data []byte) ([]Item, error) {
	var lib library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	for i := range lib.Items {
		it := &lib.Items[i]
		category, err := ParseCategory(string(it.Category))
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		it.Category = category
		if it.Content == "" && it.Body != "" {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(it.Body), &buf); err != nil {
				return nil, fmt.Errorf("rendering %q: %w", it.ID, err)
			}
			it.Content = buf.String()
		}
		if it.WordCount <= 0 {
			it.WordCount = CountWords(StripHTML(it.Content))
		}
		if it.ReadingTime <= 0 {
			it.ReadingTime = ReadingTime(it.WordCount)
		}
	}
	if err := Validate(lib.Items); err != nil {
		return nil, err
	}
	return lib.Items, nil
}
