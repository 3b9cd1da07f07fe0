// Package browser hands library pages and downloads to the system browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsafeScheme = errors.New("only http/https URLs can be opened")

// Validate parses rawURL and rejects anything that is not http or https.
func Validate(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: got scheme %q", ErrUnsafeScheme, u.Scheme)
	}
	return u, nil
}

// Resolve turns ref into an absolute URL against base. Download links in
// the catalog are usually site-relative ("/downloads/x.pdf").
func Resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	b, err := Validate(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// ItemURL is the page the site build renders for an item.
func ItemURL(base, id string) (string, error) {
	return Resolve(strings.TrimSuffix(base, "/")+"/", "items/"+url.PathEscape(id)+"/")
}

func Open(rawURL string) error {
	if _, err := Validate(rawURL); err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL).Start()
	case "linux":
		return exec.Command("xdg-open", rawURL).Start()
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL).Start()
	default:
		return exec.Command("xdg-open", rawURL).Start()
	}
}
