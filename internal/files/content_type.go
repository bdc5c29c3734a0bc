package files

import (
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	".css":  "text/css",
	".html": "text/html",
	".js":   "application/javascript",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".wasm": "application/wasm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentType returns the header value for a known extension, or "" so the
// client can sniff the body itself.
func ContentType(path string) string {
	return contentTypes[strings.ToLower(filepath.Ext(path))]
}
