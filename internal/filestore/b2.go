package filestore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/kurin/blazer/b2"
)

// B2 keeps files as objects in a Backblaze B2 bucket.
type B2 struct {
	bucket *b2.Bucket
}

func NewB2(ctx context.Context, keyID, appKey, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &B2{bucket: bucket}, nil
}

func (s *B2) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	err := ValidateName(name)
	if err != nil {
		return 0, err
	}

	obj := s.bucket.Object(name)
	_, err = obj.Attrs(ctx)
	if err == nil {
		return 0, fmt.Errorf("failed to create object: %s already exists", name)
	}
	if !b2.IsNotExist(err) {
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}

	attrs := &b2.Attrs{ContentType: mime.TypeByExtension(filepath.Ext(name))}
	return writeObject(
		ctx,
		func(ctx context.Context) io.WriteCloser { return obj.NewWriter(ctx).WithAttrs(attrs) },
		obj.Delete,
		r,
	)
}

// writeObject copies r into the writer returned by open. On failure the
// writer context is cancelled before Close so the upload is abandoned
// rather than committed, and discard removes anything already stored.
func writeObject(
	ctx context.Context,
	open func(ctx context.Context) io.WriteCloser,
	discard func(ctx context.Context) error,
	r io.Reader,
) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := open(wctx)
	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		_ = discard(ctx)
		return 0, fmt.Errorf("failed to write object: %w", err)
	}

	err = w.Close()
	if err != nil {
		_ = discard(ctx)
		return 0, fmt.Errorf("failed to close writer: %w", err)
	}
	return n, nil
}

func (s *B2) Open(ctx context.Context, name string) (*Object, error) {
	err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	obj := s.bucket.Object(name)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return &Object{
		ReadCloser: obj.NewReader(ctx),
		Name:       name,
		Size:       attrs.Size,
		ModTime:    attrs.UploadTimestamp,
	}, nil
}

func (s *B2) Remove(ctx context.Context, name string) error {
	err := ValidateName(name)
	if err != nil {
		return err
	}

	err = s.bucket.Object(name).Delete(ctx)
	if err != nil {
		if b2.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
