// Package compressed wraps a cache.Cache so payloads are stored gzipped with
// an md5 checksum appended.
package compressed

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5" // nolint:gosec
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/codeoc/dashboard/pkg/apis/cache"
)

const (
	cachePrefix = "cc:"
	sumLen      = md5.Size
)

type Cache struct {
	Cache cache.Cache
}

func NewCompressedCache(c cache.Cache) *Cache {
	return &Cache{Cache: c}
}

func (c Cache) Get(ctx context.Context, key string, duration time.Duration) ([]byte, error) {
	b, err := c.Cache.Get(ctx, cachePrefix+key, duration)
	if err != nil {
		return nil, err
	}
	if len(b) < sumLen {
		return nil, errors.New("invalid cache item length")
	}

	var checksum [sumLen]byte
	copy(checksum[:], b[len(b)-sumLen:])
	return uncompress(b[:len(b)-sumLen], checksum)
}

func (c Cache) Set(ctx context.Context, key string, content []byte, duration time.Duration) error {
	if len(content) == 0 {
		log.WithField("key", key).Warning("refusing to cache empty payload")
		return nil
	}

	data, checksum, err := compress(content)
	if err != nil {
		return err
	}
	data = append(data, checksum[:]...)

	log.WithFields(log.Fields{
		"key":    key,
		"before": len(content),
		"after":  len(data),
	}).Debugf("compressed cache entry to %.1f%% of its size", 100*float64(len(data))/float64(len(content)))

	return c.Cache.Set(ctx, cachePrefix+key, data, duration)
}

func compress(value []byte) ([]byte, [sumLen]byte, error) {
	var buf bytes.Buffer
	sum := md5.Sum(value) // nolint:gosec

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(value); err != nil {
		return nil, sum, err
	}
	if err := zw.Close(); err != nil {
		return nil, sum, err
	}
	return buf.Bytes(), sum, nil
}

func uncompress(value []byte, vSum [sumLen]byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(value))
	if err != nil {
		return nil, err
	}

	var uncompressed bytes.Buffer
	if _, err := uncompressed.ReadFrom(zr); err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}

	if md5.Sum(uncompressed.Bytes()) != vSum { // nolint:gosec
		return nil, errors.New("check sum validation did not match")
	}
	return uncompressed.Bytes(), nil
}
