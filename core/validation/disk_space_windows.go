//go:build windows

package validation

import "golang.org/x/sys/windows"

// getDiskSpace returns total and free bytes for the volume containing path.
// Free counts bytes available to the calling user.
func getDiskSpace(path string) (total int64, free int64, err error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	var available, totalBytes, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &available, &totalBytes, &totalFree); err != nil {
		return 0, 0, err
	}
	return int64(totalBytes), int64(available), nil
}
