// Package auth loads the installed-app OAuth client and the user token that
// the mail, drive and sheets clients share.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNoCredentials means there is no usable stored token; run setup-auth.
var ErrNoCredentials = errors.New("no stored credentials")

var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailComposeScope,
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
	drive.DriveReadonlyScope,
	sheets.SpreadsheetsReadonlyScope,
}

// LoadConfig reads the OAuth client file downloaded from the cloud console.
func LoadConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading oauth client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing oauth client file %s: %w", path, err)
	}
	return cfg, nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, path)
		}
		return nil, fmt.Errorf("reading token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %s is not a token file: %v", ErrNoCredentials, path, err)
	}
	return &tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// TokenSource returns a source that refreshes the stored token as needed and
// writes every refreshed token back to path.
func TokenSource(ctx context.Context, cfg *oauth2.Config, path string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: token in %s is expired and has no refresh token", ErrNoCredentials, path)
	}
	src := &persistingSource{base: cfg.TokenSource(ctx, tok), path: path, last: tok.AccessToken}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// ClientOption authenticates a google API client with ts.
func ClientOption(ts oauth2.TokenSource) option.ClientOption {
	return option.WithTokenSource(ts)
}

type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			return nil, fmt.Errorf("%w: refresh token revoked or expired: %v", ErrNoCredentials, err)
		}
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			slog.Warn("persisting refreshed token", "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}
