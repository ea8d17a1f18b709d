// Package static embeds the browser viewer.
package static

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var files embed.FS

// FS returns the embedded files.
func FS() fs.FS {
	return files
}

// ReadFile reads an embedded file.
func ReadFile(name string) ([]byte, error) {
	return files.ReadFile(name)
}
