package googleauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// mockTokenStore is an in-memory TokenStore.
type mockTokenStore struct {
	loadErr error
	saveErr error
	saved   []*oauth2.Token
	token   *oauth2.Token
}

func (m *mockTokenStore) Token(_ context.Context) (*oauth2.Token, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.token, nil
}

func (m *mockTokenStore) SaveToken(_ context.Context, token *oauth2.Token) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, token)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newAuthServer serves a token endpoint and an API endpoint that echoes the bearer token.
func newAuthServer(t *testing.T, tokenHits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenHits.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := Config("client-id", "client-secret", "http://localhost:8085/callback")

	require.Equal(t, "client-id", cfg.ClientID)
	require.Equal(t, "client-secret", cfg.ClientSecret)
	require.Equal(t, "http://localhost:8085/callback", cfg.RedirectURL)
	require.Equal(t, []string{"https://www.googleapis.com/auth/spreadsheets"}, cfg.Scopes)
	require.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		errMsg     string
		requestErr string
		store      *mockTokenStore
		wantAuth   string
		wantHits   int32
		wantSaved  bool
	}{
		"valid token is used without refresh": {
			store: &mockTokenStore{token: &oauth2.Token{
				AccessToken:  "valid",
				RefreshToken: "refresh-1",
				Expiry:       time.Now().Add(time.Hour),
			}},
			wantAuth: "Bearer valid",
		},
		"expired token is refreshed and saved": {
			store: &mockTokenStore{token: &oauth2.Token{
				AccessToken:  "stale",
				RefreshToken: "refresh-1",
				Expiry:       time.Now().Add(-time.Hour),
			}},
			wantAuth:  "Bearer fresh",
			wantHits:  1,
			wantSaved: true,
		},
		"save failure fails the request": {
			store: &mockTokenStore{
				saveErr: errors.New("disk full"),
				token: &oauth2.Token{
					AccessToken:  "stale",
					RefreshToken: "refresh-1",
					Expiry:       time.Now().Add(-time.Hour),
				},
			},
			wantHits:   1,
			requestErr: "saving refreshed token",
		},
		"load failure": {
			store:  &mockTokenStore{loadErr: errors.New("no such file")},
			errMsg: "loading token",
		},
		"expired token without refresh token": {
			store: &mockTokenStore{token: &oauth2.Token{
				AccessToken: "stale",
				Expiry:      time.Now().Add(-time.Hour),
			}},
			errMsg: "no refresh token",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			server := newAuthServer(t, &hits)

			cfg := Config("client-id", "client-secret", "")
			cfg.Endpoint.TokenURL = server.URL + "/token"
			ctx := context.WithValue(context.Background(), oauth2.HTTPClient, server.Client())

			client, err := NewHTTPClient(ctx, cfg, tc.store, discardLogger())
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)

			resp, err := client.Get(server.URL + "/api")
			if tc.requestErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.requestErr)
				require.Equal(t, tc.wantHits, hits.Load())
				return
			}
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Equal(t, tc.wantAuth, string(body))
			require.Equal(t, tc.wantHits, hits.Load())

			if !tc.wantSaved {
				require.Empty(t, tc.store.saved)
				return
			}
			require.Len(t, tc.store.saved, 1)
			require.Equal(t, "fresh", tc.store.saved[0].AccessToken)
			require.Equal(t, "refresh-1", tc.store.saved[0].RefreshToken)
		})
	}
}

func TestNewHTTPClient_RequiresArguments(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPClient(context.Background(), nil, &mockTokenStore{}, nil)
	require.ErrorContains(t, err, "oauth2 config is required")

	_, err = NewHTTPClient(context.Background(), Config("id", "secret", ""), nil, nil)
	require.ErrorContains(t, err, "token store is required")
}
