package filesystem

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// GacheFs adapts an afero filesystem to the gache.FileSystem interface.
// A zero value follows the active backend, so swapping to MemMapFs also moves gache caches.
type GacheFs struct {
	Fs afero.Fs
}

func (g GacheFs) fs() afero.Fs {
	if g.Fs != nil {
		return g.Fs
	}
	return API().Fs
}

// OpenFile opens name for gache reads and writes.
func (g GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return g.fs().OpenFile(name, flag, perm)
}

// MkdirAll creates the cache directory tree.
func (g GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return g.fs().MkdirAll(path, perm)
}
