package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader fetches manifest documents by delegating to file, fs.FS, or
// in-memory strategies depending on the source kind.
type Loader struct {
	fs fs.FS
}

// LoaderOption mutates the loader configuration.
type LoaderOption func(*Loader)

// WithFileSystem injects the filesystem fs sources resolve against.
func WithFileSystem(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load fetches a document from the provided source and wraps it in a
// Document.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("manifest: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case SourceKindBytes:
		data, err = loadBytes(ctx, src)
	default:
		err = fmt.Errorf("manifest: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, err
	}

	return NewDocument(src, data)
}

func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("manifest: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(abs)
}

func loadFromFS(ctx context.Context, filesystem fs.FS, name string) ([]byte, error) {
	if filesystem == nil {
		return nil, errors.New("manifest: filesystem is not configured")
	}
	if name == "" {
		return nil, errors.New("manifest: fs path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return fs.ReadFile(filesystem, name)
}

func loadBytes(ctx context.Context, src Source) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	carrier, ok := src.(interface{ Payload() []byte })
	if !ok {
		return nil, fmt.Errorf("manifest: bytes source %q carries no payload", src.Location())
	}
	return carrier.Payload(), nil
}
