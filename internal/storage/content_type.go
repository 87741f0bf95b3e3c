package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// contentTypeForKey maps a storage key to a MIME type by its extension.
// Snapshot keys end in .html; anything unrecognized is treated as a
// binary blob.
func contentTypeForKey(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
