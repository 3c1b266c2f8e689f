package dataloader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileSource reads exports from a local directory, for uploaded snapshots and
// development.
type FileSource struct {
	Dir string
}

func (f FileSource) Name() string {
	return "file://" + f.Dir
}

func (f FileSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.WithMessage(ErrNotFound, key)
	}
	return data, err
}
