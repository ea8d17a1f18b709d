package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"edgecam/core"
)

// DiskSpaceInfo describes the filesystem holding a path.
type DiskSpaceInfo struct {
	Path  string
	Total int64
	Free  int64
	Used  int64

	TotalFormatted string
	FreeFormatted  string

	// UsedPercent is 0-100
	UsedPercent float64
}

// DiskSpaceError reports too little free space.
type DiskSpaceError struct {
	Path      string
	Required  int64
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, core.FormatBytes(e.Required), core.FormatBytes(e.Available))
}

// GetDiskSpace returns space information for the filesystem containing path.
// A path that does not exist yet is resolved through its nearest existing
// parent, so a log file can be checked before it is created.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	dir, err := existingDir(path)
	if err != nil {
		return nil, err
	}

	total, free, err := getDiskSpace(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space for %s: %w", dir, err)
	}

	used := total - free
	var usedPercent float64
	if total > 0 {
		usedPercent = float64(used) / float64(total) * 100
	}
	return &DiskSpaceInfo{
		Path:           dir,
		Total:          total,
		Free:           free,
		Used:           used,
		TotalFormatted: core.FormatBytes(total),
		FreeFormatted:  core.FormatBytes(free),
		UsedPercent:    usedPercent,
	}, nil
}

// CheckDiskSpace returns a *DiskSpaceError when path has less than
// requiredBytes free.
func CheckDiskSpace(path string, requiredBytes int64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return err
	}
	if info.Free < requiredBytes {
		return &DiskSpaceError{Path: info.Path, Required: requiredBytes, Available: info.Free}
	}
	return nil
}

// existingDir walks up from path to the first directory that exists.
func existingDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)
	for {
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return path, nil
			}
			return filepath.Dir(path), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("cannot access path %s: %w", path, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		path = parent
	}
}
