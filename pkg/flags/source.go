package flags

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/apis/cache"
	configv1 "github.com/codeoc/dashboard/pkg/apis/config/v1"
	"github.com/codeoc/dashboard/pkg/dataloader"
)

const (
	SourceS3   = "s3"
	SourceGCS  = "gcs"
	SourceFile = "file"
)

// SourceFlags select where the user and conversation exports are read from.
type SourceFlags struct {
	Type   string
	Bucket string
	Region string

	UsersKey         string
	ConversationsKey string

	AccessKeyID     string
	SecretAccessKey string

	Freshness time.Duration
}

func NewSourceFlags() *SourceFlags {
	return &SourceFlags{
		Type:             SourceS3,
		Region:           dataloader.DefaultS3Region,
		UsersKey:         dataloader.DefaultUsersKey,
		ConversationsKey: dataloader.DefaultConversationsKey,
		Freshness:        dataloader.DefaultFreshness,
	}
}

func (f *SourceFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Type, "source", f.Type, "Where to read exports from: {s3,gcs,file}")
	fs.StringVar(&f.Bucket, "bucket", f.Bucket,
		fmt.Sprintf("Bucket holding the exports, or the directory for the file source (s3 default %s)", dataloader.DefaultS3Bucket))
	fs.StringVar(&f.Region, "aws-region", f.Region, "AWS region of the S3 bucket")
	fs.StringVar(&f.UsersKey, "users-key", f.UsersKey, "Object key of the user statistics export")
	fs.StringVar(&f.ConversationsKey, "conversations-key", f.ConversationsKey, "Object key of the conversation export")
	fs.StringVar(&f.AccessKeyID, "aws-access-key-id", os.Getenv("AWS_ACCESS_KEY_ID"), "AWS access key, the default credential chain is used when empty")
	fs.StringVar(&f.SecretAccessKey, "aws-secret-access-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "AWS secret key")
	fs.DurationVar(&f.Freshness, "freshness", f.Freshness, "How long a loaded dataset is served before it is reloaded")
}

// ApplyConfig fills in values from the configuration file for every flag that
// was not set explicitly.
func (f *SourceFlags) ApplyConfig(fs *pflag.FlagSet, cfg configv1.SourceConfig) error {
	set := func(name, value string, into *string) {
		if value != "" && !fs.Changed(name) {
			*into = value
		}
	}
	set("source", cfg.Type, &f.Type)
	set("bucket", cfg.Bucket, &f.Bucket)
	set("aws-region", cfg.Region, &f.Region)
	set("users-key", cfg.UsersKey, &f.UsersKey)
	set("conversations-key", cfg.ConversationsKey, &f.ConversationsKey)

	if cfg.Freshness != "" && !fs.Changed("freshness") {
		d, err := time.ParseDuration(cfg.Freshness)
		if err != nil {
			return errors.Wrap(err, "invalid freshness in config")
		}
		f.Freshness = d
	}
	return nil
}

func (f *SourceFlags) Validate() error {
	switch f.Type {
	case SourceS3:
	case SourceGCS, SourceFile:
		if f.Bucket == "" {
			return fmt.Errorf("--bucket is required for the %s source", f.Type)
		}
	default:
		return fmt.Errorf("unknown source %q", f.Type)
	}
	if f.UsersKey == "" || f.ConversationsKey == "" {
		return errors.New("users and conversations keys must not be empty")
	}
	if f.Freshness <= 0 {
		return errors.New("--freshness must be positive")
	}
	return nil
}

func (f *SourceFlags) GetSource(ctx context.Context, gcf *GoogleCloudFlags) (dataloader.Source, error) {
	switch f.Type {
	case SourceGCS:
		client, err := gcf.GetStorageClient(ctx)
		if err != nil {
			return nil, errors.WithMessage(err, "could not create GCS client")
		}
		return dataloader.NewGCSSource(client, f.Bucket), nil
	case SourceFile:
		return dataloader.FileSource{Dir: f.Bucket}, nil
	default:
		return dataloader.NewS3Source(ctx, dataloader.S3Options{
			Bucket:          f.Bucket,
			Region:          f.Region,
			AccessKeyID:     f.AccessKeyID,
			SecretAccessKey: f.SecretAccessKey,
		})
	}
}

// GetStore wires the source, the optional payload cache and the freshness
// window into a dataset store.
func (f *SourceFlags) GetStore(ctx context.Context, gcf *GoogleCloudFlags, c cache.Cache) (*dataloader.Store, error) {
	source, err := f.GetSource(ctx, gcf)
	if err != nil {
		return nil, err
	}
	loader := dataloader.NewLoader(source, f.UsersKey, f.ConversationsKey)
	loader.Cache = c
	loader.CacheDuration = f.Freshness
	return dataloader.NewStore(loader, f.Freshness), nil
}
