package validation

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathError describes why a path cannot be used.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return e.Message
}

// CheckDirReadable checks that path is an existing, listable directory.
func CheckDirReadable(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "directory path cannot be empty"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PathError{Path: path, Message: fmt.Sprintf("directory not found: %s", path)}
		}
		return &PathError{Path: path, Message: fmt.Sprintf("error checking directory %s: %v", path, err)}
	}
	if !info.IsDir() {
		return &PathError{Path: path, Message: fmt.Sprintf("path is a file, not a directory: %s", path)}
	}
	if _, err := os.ReadDir(path); err != nil {
		return &PathError{Path: path, Message: fmt.Sprintf("cannot list directory %s: %v", path, err)}
	}
	return nil
}

// CheckDirWritable creates dir if needed and proves a file can be written
// there. The probe file is removed again.
func CheckDirWritable(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PathError{Path: dir, Message: fmt.Sprintf("cannot create directory %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".edgecam-probe-*")
	if err != nil {
		return &PathError{Path: dir, Message: fmt.Sprintf("directory is not writable: %s", dir)}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// countMatching returns how many regular files in dir satisfy match.
func countMatching(dir string, match func(name string) bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && match(filepath.Join(dir, e.Name())) {
			n++
		}
	}
	return n, nil
}
