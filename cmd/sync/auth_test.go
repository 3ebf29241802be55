package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/peteski22/campaignsync/internal/googleauth"
)

func TestAuthCodeURL(t *testing.T) {
	t.Parallel()

	cfg := googleauth.Config("test-client", "test-secret", "http://localhost:8080/callback")
	result := authCodeURL(cfg, "state-123")

	parsed, err := url.Parse(result)
	require.NoError(t, err)
	require.Equal(t, "https", parsed.Scheme)
	require.Equal(t, "accounts.google.com", parsed.Host)

	query := parsed.Query()
	require.Equal(t, "test-client", query.Get("client_id"))
	require.Equal(t, "http://localhost:8080/callback", query.Get("redirect_uri"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "state-123", query.Get("state"))
	require.Equal(t, "offline", query.Get("access_type"))
	require.Equal(t, "consent", query.Get("prompt"))
	require.Equal(t, "https://www.googleapis.com/auth/spreadsheets", query.Get("scope"))
}

func TestGenerateOAuthState(t *testing.T) {
	t.Parallel()

	first, err := generateOAuthState()
	require.NoError(t, err)
	second, err := generateOAuthState()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, first, 44)
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		serverHandler func(w http.ResponseWriter, r *http.Request)
		errContains   string
		wantRefresh   string
	}{
		"successful token exchange": {
			serverHandler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.FormValue("code") != "auth-code-123" ||
					r.FormValue("grant_type") != "authorization_code" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"access_token":  "access-token-xyz",
					"expires_in":    3600,
					"refresh_token": "refresh-token-abc",
					"token_type":    "Bearer",
				})
			},
			wantRefresh: "refresh-token-abc",
		},
		"missing refresh token": {
			serverHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"access_token": "access-token-xyz",
					"expires_in":   3600,
					"token_type":   "Bearer",
				})
			},
			errContains: "no refresh token returned",
		},
		"error response from server": {
			serverHandler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":             "invalid_grant",
					"error_description": "The authorization code has expired",
				})
			},
			errContains: "invalid_grant",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(tc.serverHandler))
			defer server.Close()

			cfg := googleauth.Config("test-client-id", "test-client-secret", "http://localhost:8080/callback")
			cfg.Endpoint = oauth2.Endpoint{
				AuthURL:   server.URL + "/auth",
				AuthStyle: oauth2.AuthStyleInParams,
				TokenURL:  server.URL + "/token",
			}

			token, err := exchangeCode(context.Background(), cfg, "auth-code-123")

			if tc.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "access-token-xyz", token.AccessToken)
			require.Equal(t, tc.wantRefresh, token.RefreshToken)
		})
	}
}

func TestWriteCallbackResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()

	writeCallbackResponse(w, "Test <Title>", "Test message here.")

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, "text/html", resp.Header.Get("Content-Type"))

	body := w.Body.String()
	require.Contains(t, body, "<h1>Test &lt;Title&gt;</h1>")
	require.Contains(t, body, "<p>Test message here.</p>")
	require.Contains(t, body, "You can close this window.")
}

func TestBrowserCommand(t *testing.T) {
	t.Parallel()

	testURL := "https://example.com/auth"
	name, args := browserCommand(testURL)

	require.NotEmpty(t, name)
	require.True(t, slices.Contains(args, testURL), "URL should be in command arguments")
}

func TestStartOAuthCallbackServer(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		query     string
		wantCode  string
		wantError string
	}{
		"successful authorization callback": {
			query:    "code=test-auth-code&state=expected",
			wantCode: "test-auth-code",
		},
		"error callback": {
			query:     "error=access_denied&error_description=User%20denied%20access",
			wantError: "access_denied: User denied access",
		},
		"missing code callback": {
			query:     "state=expected",
			wantError: "no authorization code",
		},
		"state mismatch": {
			query:     "code=test-auth-code&state=forged",
			wantError: "state mismatch",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			listener, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)

			server := startOAuthCallbackServer(listener, codeChan, errChan, "expected")
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = server.Shutdown(ctx)
			}()

			resp, err := http.Get("http://" + listener.Addr().String() + callbackPath + "?" + tc.query)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusOK, resp.StatusCode)

			select {
			case code := <-codeChan:
				require.Empty(t, tc.wantError, "unexpected code received")
				require.Equal(t, tc.wantCode, code)
			case err := <-errChan:
				require.NotEmpty(t, tc.wantError, "unexpected error: %v", err)
				require.Contains(t, err.Error(), tc.wantError)
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for callback")
			}
		})
	}
}
