package browser

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := Validate(tt.url)
		if tt.wantErr != (err != nil) {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	err := Open("file:///etc/passwd")
	if !errors.Is(err, ErrUnsafeScheme) {
		t.Fatalf("Open(file URL) error = %v, want ErrUnsafeScheme", err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref string
		want      string
		wantErr   bool
	}{
		{"http://127.0.0.1:8080", "/downloads/sun.pdf", "http://127.0.0.1:8080/downloads/sun.pdf", false},
		{"http://127.0.0.1:8080/", "downloads/sun.pdf", "http://127.0.0.1:8080/downloads/sun.pdf", false},
		{"", "https://cdn.example.com/sun.pdf", "https://cdn.example.com/sun.pdf", false},
		{"", "/downloads/sun.pdf", "", true},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.base, tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Resolve(%q, %q) = %q, want error", tt.base, tt.ref, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, %v, want %q", tt.base, tt.ref, got, err, tt.want)
		}
	}
}

func TestItemURL(t *testing.T) {
	got, err := ItemURL("http://127.0.0.1:8080", "the-sun-also")
	if err != nil {
		t.Fatal(err)
	}
	if want := "http://127.0.0.1:8080/items/the-sun-also/"; got != want {
		t.Errorf("ItemURL = %q, want %q", got, want)
	}
}
