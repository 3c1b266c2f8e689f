package flags

import (
	"context"
	"os"

	"cloud.google.com/go/storage"
	"github.com/spf13/pflag"

	"github.com/codeoc/dashboard/pkg/dataloader"
)

// GoogleCloudFlags contain configuration information for Google cloud-related services.
type GoogleCloudFlags struct {
	ServiceAccountCredentialFile string
	OAuthClientCredentialFile    string
}

func NewGoogleCloudFlags() *GoogleCloudFlags {
	return &GoogleCloudFlags{
		OAuthClientCredentialFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
}

func (f *GoogleCloudFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ServiceAccountCredentialFile,
		"google-service-account-credential-file",
		f.ServiceAccountCredentialFile,
		"location of a credential file described by https://cloud.google.com/docs/authentication/production")

	fs.StringVar(&f.OAuthClientCredentialFile,
		"google-oauth-credential-file",
		f.OAuthClientCredentialFile,
		"location of an OAuth client credential file, used when no service account is given")
}

func (f *GoogleCloudFlags) GetStorageClient(ctx context.Context) (*storage.Client, error) {
	return dataloader.NewGCSClient(ctx, f.ServiceAccountCredentialFile, f.OAuthClientCredentialFile)
}
