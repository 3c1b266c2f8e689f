package dataloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// NewGCSClient builds a storage client from a service account key, or from an
// OAuth client for interactive use. The OAuth token is cached in the user's
// home directory.
func NewGCSClient(ctx context.Context, serviceAccountCredentialFile, oauthClientCredentialFile string) (*storage.Client, error) {
	if len(serviceAccountCredentialFile) > 0 {
		return storage.NewClient(ctx,
			option.WithCredentialsFile(serviceAccountCredentialFile),
		)
	}

	b, err := os.ReadFile(oauthClientCredentialFile)
	if err != nil {
		return nil, err
	}

	config, err := google.ConfigFromJSON(b, storage.ScopeReadOnly)
	if err != nil {
		return nil, err
	}
	token, err := getToken(ctx, config)
	if err != nil {
		return nil, err
	}

	return storage.NewClient(ctx,
		option.WithTokenSource(config.TokenSource(ctx, token)),
	)
}

func getToken(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	tokenDir := os.Getenv("HOME")
	if len(tokenDir) == 0 {
		tokenDir = "./"
	}
	tokFile := filepath.Join(tokenDir, ".codeoc-dashboard-gcp-token.json")
	if tok, err := tokenFromFile(tokFile); err == nil {
		return tok, nil
	}

	tok, err := getTokenFromWeb(ctx, config)
	if err != nil {
		return nil, err
	}
	saveToken(tokFile, tok)
	return tok, nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, errors.Wrap(err, "unable to read authorization code")
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, errors.Wrap(err, "unable to retrieve token from web")
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) {
	log.WithField("path", path).Info("saving oauth token")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		log.WithError(err).Error("unable to cache oauth token")
		return
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		log.WithError(err).Error("unable to write oauth token")
	}
}
