// Package config provides configuration loading from environment variables,
// an optional .env file and the local config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvGoogleClientID is the OAuth client ID used for the Sheets API.
	EnvGoogleClientID = "GOOGLE_CLIENT_ID"

	// EnvGoogleClientSecret is the OAuth client secret used for the Sheets API.
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"

	// EnvGoogleTokenSecretARN is the Secrets Manager ARN holding the OAuth token, replacing the token file.
	EnvGoogleTokenSecretARN = "GOOGLE_TOKEN_SECRET_ARN"

	// EnvLogLevel is the minimum log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvMailjetBaseURL is the Mailjet REST root.
	EnvMailjetBaseURL = "MAILJET_BASE_URL"

	// EnvMailjetPrivateKey is the Mailjet secret API key.
	EnvMailjetPrivateKey = "MJ_APIKEY_PRIVATE"

	// EnvMailjetPublicKey is the Mailjet public API key.
	EnvMailjetPublicKey = "MJ_APIKEY_PUBLIC"

	// EnvSheetPrefix is the prefix of the destination sheet names.
	EnvSheetPrefix = "SHEET_PREFIX"

	// EnvSpreadsheetID is the destination spreadsheet.
	EnvSpreadsheetID = "SPREADSHEET_ID"

	// EnvSSMParameterName is the SSM parameter receiving the last successful run time.
	EnvSSMParameterName = "SSM_PARAMETER_NAME"

	// EnvTokenPath is the credential cache file holding the OAuth token.
	EnvTokenPath = "TOKEN_PATH"

	defaultLogLevel       = "info"
	defaultMailjetBaseURL = "https://api.mailjet.com/v3/REST"
	defaultSheetPrefix    = "Mailjet"
	defaultTokenPath      = "token.json"
)

// Google holds the OAuth client and token location for the Sheets API.
type Google struct {
	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	ClientSecret string

	// TokenPath is the credential cache file, used when TokenSecretARN is empty.
	TokenPath string

	// TokenSecretARN is the Secrets Manager ARN storing the OAuth token (optional).
	TokenSecretARN string
}

// Mailjet holds Mailjet API configuration.
type Mailjet struct {
	// BaseURL is the REST root.
	BaseURL string

	// PrivateKey is the secret API key.
	PrivateKey string

	// PublicKey is the public API key.
	PublicKey string
}

// Sheets holds the destination spreadsheet configuration.
type Sheets struct {
	// Prefix is prepended to the dataset name to form each sheet name.
	Prefix string

	// SpreadsheetID identifies the destination spreadsheet.
	SpreadsheetID string
}

// SSM holds AWS Systems Manager Parameter Store configuration.
type SSM struct {
	// ParameterName is the SSM parameter receiving the last run time (optional).
	ParameterName string
}

// Settings holds all configuration for the application.
type Settings struct {
	// Google contains OAuth settings for the Sheets API.
	Google Google

	// LogLevel is the minimum level logged.
	LogLevel slog.Level

	// Mailjet contains Mailjet API settings.
	Mailjet Mailjet

	// Sheets contains destination spreadsheet settings.
	Sheets Sheets

	// SSM contains AWS Systems Manager Parameter Store settings.
	SSM SSM
}

func (s *Settings) validate() error {
	var errs []error

	if s.Google.ClientID == "" {
		errs = append(errs, requiredError(EnvGoogleClientID))
	}
	if s.Google.ClientSecret == "" {
		errs = append(errs, requiredError(EnvGoogleClientSecret))
	}
	if s.Google.TokenPath == "" && s.Google.TokenSecretARN == "" {
		errs = append(errs, fmt.Errorf("%s or %s is required", EnvTokenPath, EnvGoogleTokenSecretARN))
	}
	if s.Mailjet.PrivateKey == "" {
		errs = append(errs, requiredError(EnvMailjetPrivateKey))
	}
	if s.Mailjet.PublicKey == "" {
		errs = append(errs, requiredError(EnvMailjetPublicKey))
	}
	if s.Sheets.SpreadsheetID == "" {
		errs = append(errs, requiredError(EnvSpreadsheetID))
	}

	return errors.Join(errs...)
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first without overriding the environment,
// and values still unset are taken from the local config file when one exists.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	level, err := ParseLogLevel(envOrDefault(EnvLogLevel, defaultLogLevel))
	if err != nil {
		return nil, err
	}

	cfg := &Settings{
		Google: Google{
			ClientID:       strings.TrimSpace(os.Getenv(EnvGoogleClientID)),
			ClientSecret:   strings.TrimSpace(os.Getenv(EnvGoogleClientSecret)),
			TokenPath:      strings.TrimSpace(os.Getenv(EnvTokenPath)),
			TokenSecretARN: strings.TrimSpace(os.Getenv(EnvGoogleTokenSecretARN)),
		},
		LogLevel: level,
		Mailjet: Mailjet{
			BaseURL:    envOrDefault(EnvMailjetBaseURL, defaultMailjetBaseURL),
			PrivateKey: strings.TrimSpace(os.Getenv(EnvMailjetPrivateKey)),
			PublicKey:  strings.TrimSpace(os.Getenv(EnvMailjetPublicKey)),
		},
		Sheets: Sheets{
			Prefix:        strings.TrimSpace(os.Getenv(EnvSheetPrefix)),
			SpreadsheetID: strings.TrimSpace(os.Getenv(EnvSpreadsheetID)),
		},
		SSM: SSM{
			ParameterName: strings.TrimSpace(os.Getenv(EnvSSMParameterName)),
		},
	}

	if err := cfg.mergeLocal(); err != nil {
		return nil, err
	}

	if cfg.Sheets.Prefix == "" {
		cfg.Sheets.Prefix = defaultSheetPrefix
	}
	if cfg.Google.TokenPath == "" && cfg.Google.TokenSecretARN == "" {
		cfg.Google.TokenPath = defaultTokenPath
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseLogLevel converts a level name such as "debug" or "WARN" to a slog.Level.
func ParseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, value, err)
	}
	return level, nil
}

// mergeLocal fills settings left empty by the environment from the local config file.
func (s *Settings) mergeLocal() error {
	path, err := ConfigFilePath()
	if err != nil {
		// Without a home directory there is no local config to merge.
		return nil
	}

	local, err := readLocal(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	fill(&s.Google.ClientID, local.Google.ClientID)
	fill(&s.Google.ClientSecret, local.Google.ClientSecret)
	fill(&s.Mailjet.PrivateKey, local.Mailjet.PrivateKey)
	fill(&s.Mailjet.PublicKey, local.Mailjet.PublicKey)
	fill(&s.Sheets.Prefix, local.Sheets.Prefix)
	fill(&s.Sheets.SpreadsheetID, local.Sheets.SpreadsheetID)

	if s.Google.TokenPath == "" && s.Google.TokenSecretARN == "" {
		tokenPath, err := TokenFilePath()
		if err == nil {
			s.Google.TokenPath = tokenPath
		}
	}

	return nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = strings.TrimSpace(value)
	}
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
