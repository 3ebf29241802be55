// Package storage persists the OAuth token and the last-run marker
// in local files or AWS services.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// decodeToken parses a token serialised by encodeToken.
func decodeToken(data []byte) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("token has neither access nor refresh token")
	}

	return &token, nil
}

func encodeToken(token *oauth2.Token) ([]byte, error) {
	if token == nil {
		return nil, errors.New("token cannot be nil")
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("token has neither access nor refresh token")
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding token: %w", err)
	}

	return data, nil
}
