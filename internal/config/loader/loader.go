// Package loader loads proofpane configuration from TOML files and
// environment variables.
package loader

import "os"

// FileSystem abstracts file reading for testability.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// osFS reads from the real file system.
type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the real file system.
func DefaultFS() FileSystem {
	return osFS{}
}
