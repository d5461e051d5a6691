// Package filestore persists uploaded submission files by reference.
package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	ErrNotExist    = errors.New("file does not exist")
	ErrInvalidName = errors.New("invalid file name")
)

type Store interface {
	// Save writes r under name. It never overwrites an existing file.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open returns ErrNotExist when nothing is stored under name.
	Open(ctx context.Context, name string) (*Object, error)
	Remove(ctx context.Context, name string) error
}

// Object is an open stored file. Callers must close it.
type Object struct {
	io.ReadCloser
	Name    string
	Size    int64
	ModTime time.Time
}

// ValidateName accepts plain file names only: no directories, no dot
// segments, no hidden files.
func ValidateName(name string) error {
	if name == "" || len(name) > 255 ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}
