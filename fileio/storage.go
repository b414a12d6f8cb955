package fileio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// ErrUnsupportedFormat is returned for files that parse but use an encoding
// the adapters do not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Store is the file adapter over an afs.Service.
type Store struct {
	fs afs.Service
}

// NewStore returns a Store over fs, or over a fresh afs service when fs is
// nil.
func NewStore(fs afs.Service) *Store {
	if fs == nil {
		fs = afs.New()
	}
	return &Store{fs: fs}
}

// normalize turns bare paths into file URLs.
func normalize(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	return url.Normalize(location, file.Scheme)
}

func (s *Store) download(ctx context.Context, location string) ([]byte, error) {
	u := normalize(location)
	exists, err := s.fs.Exists(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("read %s: file does not exist", location)
	}
	data, err := s.fs.DownloadWithURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// upload replaces location with data.
func (s *Store) upload(ctx context.Context, location string, data []byte) error {
	return s.uploadFrom(ctx, location, bytes.NewReader(data))
}

func (s *Store) uploadFrom(ctx context.Context, location string, r io.Reader) error {
	u := normalize(location)
	if exists, _ := s.fs.Exists(ctx, u); exists {
		if err := s.fs.Delete(ctx, u); err != nil {
			return fmt.Errorf("replace %s: %w", location, err)
		}
	}
	if err := s.fs.Upload(ctx, u, file.DefaultFileOsMode, r); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	return nil
}

// ReadFile returns the raw contents of location.
func (s *Store) ReadFile(ctx context.Context, location string) ([]byte, error) {
	return s.download(ctx, location)
}

// WriteFile replaces location with data.
func (s *Store) WriteFile(ctx context.Context, location string, data []byte) error {
	return s.upload(ctx, location, data)
}
