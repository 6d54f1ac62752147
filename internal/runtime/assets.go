package runtime

import (
	"net/url"
	"strings"
)

// IdentityAssets returns asset paths unchanged.
func IdentityAssets(path string) string { return path }

// AssetsAt resolves asset paths against base, e.g. a CDN prefix.
// Absolute URLs pass through untouched.
func AssetsAt(base string) func(string) string {
	if base == "" {
		return IdentityAssets
	}
	return func(path string) string {
		if strings.Contains(path, "://") {
			return path
		}
		joined, err := url.JoinPath(base, path)
		if err != nil {
			return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
		}
		return joined
	}
}
