// Package googleauth builds OAuth2 HTTP clients for the Google Sheets API
// and keeps the stored token current when it is refreshed.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// TokenStore provides access to the persisted OAuth token.
type TokenStore interface {
	// Token returns the stored token.
	Token(ctx context.Context) (*oauth2.Token, error)

	// SaveToken replaces the stored token.
	SaveToken(ctx context.Context, token *oauth2.Token) error
}

// persistingTokenSource saves every token that differs from the last one it handed out.
type persistingTokenSource struct {
	// ctx is used for store calls, as oauth2.TokenSource has no context parameter.
	ctx context.Context

	// current is the last token returned.
	current *oauth2.Token

	// logger receives a line per saved token.
	logger *slog.Logger

	// mu serialises refreshes.
	mu sync.Mutex

	// source refreshes the token when it expires.
	source oauth2.TokenSource

	// store persists refreshed tokens.
	store TokenStore
}

// Token implements oauth2.TokenSource.
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.source.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if s.current != nil && token.AccessToken == s.current.AccessToken {
		return token, nil
	}

	// Google omits the refresh token from refresh responses.
	if token.RefreshToken == "" && s.current != nil {
		token.RefreshToken = s.current.RefreshToken
	}

	if err := s.store.SaveToken(s.ctx, token); err != nil {
		return nil, fmt.Errorf("saving refreshed token: %w", err)
	}
	s.logger.InfoContext(s.ctx, "saved refreshed token", "expiry", token.Expiry)

	s.current = token
	return token, nil
}

// Config returns the OAuth2 configuration for read-write spreadsheet access.
func Config(clientID string, clientSecret string, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheetsapi.SpreadsheetsScope},
	}
}

// NewHTTPClient returns an HTTP client authorised with the stored token.
// Refreshed tokens are written back to the store.
func NewHTTPClient(ctx context.Context, cfg *oauth2.Config, store TokenStore, logger *slog.Logger) (*http.Client, error) {
	if cfg == nil {
		return nil, errors.New("oauth2 config is required")
	}
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	token, err := store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, errors.New("stored token is expired and has no refresh token")
	}

	source := &persistingTokenSource{
		ctx:     ctx,
		current: token,
		logger:  logger,
		source:  cfg.TokenSource(ctx, token),
		store:   store,
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source)), nil
}
