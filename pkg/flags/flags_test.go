package flags

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	configv1 "github.com/codeoc/dashboard/pkg/apis/config/v1"
	"github.com/codeoc/dashboard/pkg/cache/compressed"
	"github.com/codeoc/dashboard/pkg/cache/memory"
	"github.com/codeoc/dashboard/pkg/dataloader"
)

func TestSourceFlagsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(f *SourceFlags)
		wantErr string
	}{
		{
			name:   "s3 defaults",
			modify: func(f *SourceFlags) {},
		},
		{
			name:    "gcs requires a bucket",
			modify:  func(f *SourceFlags) { f.Type = SourceGCS },
			wantErr: "--bucket is required",
		},
		{
			name: "file with directory",
			modify: func(f *SourceFlags) {
				f.Type = SourceFile
				f.Bucket = "/tmp/exports"
			},
		},
		{
			name:    "unknown source",
			modify:  func(f *SourceFlags) { f.Type = "ftp" },
			wantErr: "unknown source",
		},
		{
			name:    "empty key",
			modify:  func(f *SourceFlags) { f.UsersKey = "" },
			wantErr: "must not be empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewSourceFlags()
			tc.modify(f)
			err := f.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSourceFlagsApplyConfig(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := NewSourceFlags()
	f.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--bucket", "from-flag"}))

	err := f.ApplyConfig(fs, configv1.SourceConfig{
		Type:      SourceGCS,
		Bucket:    "from-config",
		Freshness: "2m",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceGCS, f.Type)
	assert.Equal(t, "from-flag", f.Bucket, "explicit flags win over the config file")
	assert.Equal(t, 2*time.Minute, f.Freshness)
	assert.Equal(t, dataloader.DefaultUsersKey, f.UsersKey)

	err = f.ApplyConfig(pflag.NewFlagSet("empty", pflag.ContinueOnError), configv1.SourceConfig{Freshness: "soon"})
	assert.Error(t, err)
}

func TestReportFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := NewReportFlags()
	f.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--top-n", "5"}))
	assert.Contains(t, fs.Lookup("free-chats").Usage, "neither DTCs nor internal error codes")

	f.ApplyConfig(fs, configv1.ReportConfig{IncludeFreeChats: true, Identity: "email", TopN: 20})
	require.NoError(t, f.Validate())

	opts := f.ReportOptions()
	assert.True(t, opts.IncludeFreeChats)
	assert.Equal(t, apitype.IdentityEmail, opts.Identity)
	assert.Equal(t, 5, opts.TopN)

	f.Identity = "phone"
	assert.Error(t, f.Validate())
}

func TestCacheFlags(t *testing.T) {
	f := NewCacheFlags()
	c, err := f.GetCacheClient()
	require.NoError(t, err)
	assert.Nil(t, c)

	f.InMemoryCache = true
	c, err = f.GetCacheClient()
	require.NoError(t, err)
	assert.IsType(t, &memory.Cache{}, c)

	f.RedisURL = "redis://localhost:6379/0"
	c, err = f.GetCacheClient()
	require.NoError(t, err)
	assert.IsType(t, &compressed.Cache{}, c)

	f.RedisURL = "not a url"
	_, err = f.GetCacheClient()
	assert.Error(t, err)
}
