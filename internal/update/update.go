// Package update looks up the latest published bookshelf release.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is the latest-release endpoint for bookshelf.
const DefaultURL = "https://api.github.com/repos/matheuskafuri/bookshelf/releases/latest"

var (
	ErrDevBuild  = errors.New("development build has no release version")
	ErrNoRelease = errors.New("no published release")
)

// Release describes one published version.
type Release struct {
	Version string
	URL     string
}

// Checker queries a releases endpoint. The zero value uses DefaultURL and
// http.DefaultClient.
type Checker struct {
	Client  *http.Client
	URL     string
	Timeout time.Duration
}

// Latest fetches the most recent release.
func (c Checker) Latest(ctx context.Context) (*Release, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := c.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoRelease
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching release: unexpected status %s", resp.Status)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	v := strings.TrimPrefix(strings.TrimSpace(payload.TagName), "v")
	if v == "" {
		return nil, ErrNoRelease
	}
	return &Release{Version: v, URL: payload.HTMLURL}, nil
}

// Newer returns the latest release when it is strictly newer than current,
// and nil when current is up to date.
func (c Checker) Newer(ctx context.Context, current string) (*Release, error) {
	current = strings.TrimPrefix(strings.TrimSpace(current), "v")
	if current == "" || current == "dev" {
		return nil, ErrDevBuild
	}
	rel, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if Compare(rel.Version, current) <= 0 {
		return nil, nil
	}
	return rel, nil
}

// Compare orders dotted numeric versions such as 1.10.2. Missing parts count
// as zero and a pre-release suffix ("1.2.0-rc1") sorts before the release.
func Compare(a, b string) int {
	an, apre := splitVersion(a)
	bn, bpre := splitVersion(b)
	for i := 0; i < len(an) || i < len(bn); i++ {
		var x, y int
		if i < len(an) {
			x = an[i]
		}
		if i < len(bn) {
			y = bn[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case apre == bpre:
		return 0
	case apre == "":
		return 1
	case bpre == "":
		return -1
	}
	return strings.Compare(apre, bpre)
}

func splitVersion(v string) ([]int, string) {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	var pre string
	if i := strings.IndexByte(v, '-'); i >= 0 {
		v, pre = v[:i], v[i+1:]
	}
	var nums []int
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums = append(nums, n)
	}
	return nums, pre
}
