package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".campaignsync"
	configFileName = "config.yaml"
	tokenFileName  = "token.json"
)

// LocalConfig holds configuration loaded from the local config file.
type LocalConfig struct {
	Google  localGoogle  `yaml:"google"`
	Mailjet localMailjet `yaml:"mailjet"`
	Sheets  localSheets  `yaml:"sheets"`
}

// localGoogle is the google section of the config file.
type localGoogle struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// localMailjet is the mailjet section of the config file.
type localMailjet struct {
	PrivateKey string `yaml:"api_key_private"`
	PublicKey  string `yaml:"api_key_public"`
}

// localSheets is the sheets section of the config file.
type localSheets struct {
	Prefix        string `yaml:"prefix"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
}

// ConfigDir returns the campaignsync configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadLocal loads and validates the local config file.
func LoadLocal() (*LocalConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := readLocal(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s (run 'campaignsync init' to create)", configPath)
		}
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// TokenFilePath returns the path of the credential cache written by the auth command.
func TokenFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// readLocal parses the config file at path without validating it.
func readLocal(path string) (*LocalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// validate checks that required fields are set.
func (c *LocalConfig) validate() error {
	var errs []error

	if c.Google.ClientID == "" {
		errs = append(errs, errors.New("google.client_id is required"))
	}
	if c.Google.ClientSecret == "" {
		errs = append(errs, errors.New("google.client_secret is required"))
	}
	if c.Mailjet.PrivateKey == "" {
		errs = append(errs, errors.New("mailjet.api_key_private is required"))
	}
	if c.Mailjet.PublicKey == "" {
		errs = append(errs, errors.New("mailjet.api_key_public is required"))
	}
	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("sheets.spreadsheet_id is required"))
	}

	return errors.Join(errs...)
}
