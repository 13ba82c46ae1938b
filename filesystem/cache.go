package filesystem

import (
	"io"
	"os"
	"time"

	"github.com/metafates/gache"
)

// cacheBackend routes gache's file access through the active backend,
// so MemMapFs in tests also holds the cache files.
type cacheBackend struct{}

func (cacheBackend) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (cacheBackend) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}

// NewCache returns a file-backed value cache at path that expires after lifetime.
// Only bookkeeping goes here; resolved streams are never cached.
func NewCache[T any](path string, lifetime time.Duration) *gache.Cache[T] {
	return gache.New[T](&gache.Options{
		Path:       path,
		Lifetime:   lifetime,
		FileSystem: cacheBackend{},
	})
}
