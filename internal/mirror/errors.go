package mirror

import (
	"errors"
	"fmt"
)

// ErrEmptyFilename is returned when a file URL ends with "/" and therefore
// names no file.
var ErrEmptyFilename = errors.New("mirror: file URL has no filename")

// ErrShortWrite is wrapped by a FilesystemError when the destination accepted
// fewer bytes than requested.
var ErrShortWrite = errors.New("mirror: short write")

// FilesystemError reports a failure to create a directory or write a file
// under the destination root.
type FilesystemError struct {
	// Op is the failed operation: "mkdir", "create", "write" or "close".
	Op string

	// Path is the destination path, relative to the destination root.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("mirror: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}
