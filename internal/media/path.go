// Package media removes stored product images from the local uploads
// directory or from the S3 media bucket.
package media

import (
	"path"
	"strings"
)

// IsRemoteURL reports whether p carries a scheme such as https:// or s3://.
func IsRemoteURL(p string) bool {
	return strings.Contains(p, "://")
}

// NormalizeRelative turns a stored image path into a slash-separated key
// relative to the storage root. Bare file names are placed under
// defaultSubdir. Remote urls, empty values and paths escaping the root are
// rejected.
func NormalizeRelative(raw, defaultSubdir string) (string, bool) {
	p := strings.TrimSpace(raw)
	if p == "" || IsRemoteURL(p) {
		return "", false
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", false
	}
	if !strings.Contains(p, "/") && defaultSubdir != "" {
		p = path.Join(strings.Trim(defaultSubdir, "/"), p)
	}

	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
