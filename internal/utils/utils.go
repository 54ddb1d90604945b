package utils

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// UriToPath returns the file system path of a file:// URI.
func UriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("URI %q has no path", uri)
	}
	return filepath.FromSlash(u.Path), nil
}
