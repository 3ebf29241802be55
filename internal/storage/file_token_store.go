package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
)

// FileTokenStore keeps the OAuth token as JSON in a local credential cache file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a FileTokenStore that reads and writes the given path.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}
	return &FileTokenStore{path: path}, nil
}

// Path returns the credential cache location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Token reads the token from the file.
func (s *FileTokenStore) Token(_ context.Context) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("token file not found: %s (run 'campaignsync auth' to authenticate)", s.path)
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("token file is empty: %s", s.path)
	}

	token, err := decodeToken(data)
	if err != nil {
		return nil, fmt.Errorf("token file %s: %w", s.path, err)
	}

	return token, nil
}

// SaveToken replaces the file contents with the token.
// The file is written next to the target and renamed so a crash never leaves a partial token.
func (s *FileTokenStore) SaveToken(_ context.Context, token *oauth2.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("creating temporary token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting token file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}
