//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/eventrank/internal/errors"
)

// openFileNoFollow opens a file for writing with O_NOFOLLOW so the final path
// component cannot be a symlink. O_CLOEXEC prevents FD leaks across exec.
// Directory components are covered by ValidateExportPath, which only accepts
// files directly inside the exports directory.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
