// Package file implements datasource.Source for local files and reads the
// small line-oriented lists the pipeline accepts next to its config.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the base name of the file, used in log fields and errors.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open returns ctx.Err() without touching the filesystem when ctx is already
// done. Filesystem errors keep their cause, so errors.Is(err, os.ErrNotExist)
// works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
