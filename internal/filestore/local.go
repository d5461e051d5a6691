package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type Local struct {
	fs  afero.Fs
	dir string
}

// NewLocal stores files flat under dir, creating it when missing.
func NewLocal(fs afero.Fs, dir string) (*Local, error) {
	err := fs.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{fs: fs, dir: dir}, nil
}

func (l *Local) path(name string) (string, error) {
	err := ValidateName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader) (int64, error) {
	path, err := l.path(name)
	if err != nil {
		return 0, err
	}

	f, err := l.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = l.fs.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	err = f.Close()
	if err != nil {
		_ = l.fs.Remove(path)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	return n, nil
}

func (l *Local) Open(_ context.Context, name string) (*Object, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}

	f, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ErrNotExist
	}

	return &Object{
		ReadCloser: f,
		Name:       name,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
	}, nil
}

func (l *Local) Remove(_ context.Context, name string) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}

	err = l.fs.Remove(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
