package dataloader

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/cache/memory"
)

const (
	usersJSON = `[{"user_id": "u1", "email": "a@x", "user_role": "mechanic", "workshop_id": "w1",
		"company_name": "Acme", "last_login": "2024-01-01T00:00:00Z", "login_count": 1}]`
	conversationsJSON = `[{"chat_id": "c1", "user_id": "u1", "created_at": "2024-01-01T00:00:00Z",
		"updated_at": "2024-01-01T00:00:00Z", "open_search": false, "messages": []}]`
)

type fakeSource struct {
	mu      sync.Mutex
	objects map[string][]byte
	fetches int
}

func (f *fakeSource) Name() string {
	return "fake"
}

func (f *fakeSource) Fetch(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.WithMessage(ErrNotFound, key)
	}
	return data, nil
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoaderLoad(t *testing.T) {
	source := &fakeSource{objects: map[string][]byte{
		DefaultUsersKey:         gzipped(t, usersJSON),
		DefaultConversationsKey: gzipped(t, conversationsJSON),
	}}
	loader := NewLoader(source, "", "")

	ds, err := loader.Load(context.Background(), cache.RequestOptions{})
	require.NoError(t, err)
	require.Len(t, ds.Conversations, 1)
	assert.True(t, ds.Conversations[0].Matched)
	assert.Equal(t, "Acme", ds.Conversations[0].CompanyName)
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		objects map[string][]byte
		check   func(t *testing.T, err error)
	}{
		{
			name:    "missing object is no data",
			objects: map[string][]byte{"users.json": []byte(usersJSON)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, v1.ErrNoData)
			},
		},
		{
			name: "empty collection is no data",
			objects: map[string][]byte{
				"users.json":         []byte(usersJSON),
				"conversations.json": []byte(`[]`),
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, v1.ErrNoData)
			},
		},
		{
			name: "invalid json",
			objects: map[string][]byte{
				"users.json":         []byte(`{"not": "a list"}`),
				"conversations.json": []byte(conversationsJSON),
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.NotErrorIs(t, err, v1.ErrNoData)
				assert.Contains(t, err.Error(), "users.json")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewLoader(&fakeSource{objects: tc.objects}, "users.json", "conversations.json")
			_, err := loader.Load(context.Background(), cache.RequestOptions{})
			tc.check(t, err)
		})
	}
}

func TestLoaderCache(t *testing.T) {
	source := &fakeSource{objects: map[string][]byte{
		"users.json":         []byte(usersJSON),
		"conversations.json": []byte(conversationsJSON),
	}}
	loader := NewLoader(source, "users.json", "conversations.json")
	loader.Cache = memory.NewMemoryCache()
	loader.CacheDuration = DefaultFreshness

	_, err := loader.Load(context.Background(), cache.RequestOptions{})
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), cache.RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, source.fetches, "second load is served from the cache")
}

func TestRefreshBypassesPayloadCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(usersJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conversations.json"), []byte(conversationsJSON), 0o600))

	loader := NewLoader(FileSource{Dir: dir}, "users.json", "conversations.json")
	loader.Cache = memory.NewMemoryCache()
	loader.CacheDuration = DefaultFreshness
	store := NewStore(loader, time.Minute)

	ds, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Conversations, 1)

	updated := `[{"chat_id": "c1", "user_id": "u1", "created_at": "2024-01-01T00:00:00Z"},
		{"chat_id": "c2", "user_id": "u1", "created_at": "2024-01-02T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conversations.json"), []byte(updated), 0o600))

	cached, err := loader.Load(ctx, cache.RequestOptions{})
	require.NoError(t, err)
	assert.Len(t, cached.Conversations, 1, "a plain load is served from the payload cache")

	ds, err = store.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Conversations, 2, "refresh reads the current export")

	cached, err = loader.Load(ctx, cache.RequestOptions{})
	require.NoError(t, err)
	assert.Len(t, cached.Conversations, 2, "the refreshed payload replaces the cached one")
}

func TestDecompress(t *testing.T) {
	plain := []byte(`[1, 2]`)

	got, err := Decompress("plain.json", plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	got, err = Decompress("no-suffix", gzipped(t, string(plain)))
	require.NoError(t, err)
	assert.Equal(t, plain, got, "gzip magic is detected without the suffix")

	_, err = Decompress("broken.json.gz", plain)
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "latest"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest", "users.json"), []byte(usersJSON), 0o600))

	source := FileSource{Dir: dir}
	data, err := source.Fetch(context.Background(), "latest/users.json")
	require.NoError(t, err)
	assert.Equal(t, usersJSON, string(data))

	_, err = source.Fetch(context.Background(), "latest/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeS3 struct {
	objects map[string]string
	bucket  string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = *params.Bucket
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"latest/users.json": usersJSON}}
	source := &S3Source{client: client, bucket: DefaultS3Bucket}

	data, err := source.Fetch(context.Background(), "latest/users.json")
	require.NoError(t, err)
	assert.Equal(t, usersJSON, string(data))
	assert.Equal(t, DefaultS3Bucket, client.bucket)
	assert.Equal(t, "s3://codeoc-dashboard-prod", source.Name())

	_, err = source.Fetch(context.Background(), "latest/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
