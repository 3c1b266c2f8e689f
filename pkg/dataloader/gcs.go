package dataloader

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
)

type GCSSource struct {
	bkt  *storage.BucketHandle
	name string
}

func NewGCSSource(client *storage.Client, bucket string) *GCSSource {
	return &GCSSource{bkt: client.Bucket(bucket), name: bucket}
}

func (g *GCSSource) Name() string {
	return "gs://" + g.name
}

func (g *GCSSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bkt.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.WithMessage(ErrNotFound, key)
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
