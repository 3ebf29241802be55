package main

import (
	"fmt"
	"os"

	"github.com/peteski22/campaignsync/internal/config"
)

const configTemplate = `# campaignsync configuration
# Environment variables take precedence over the values below.

google:
  # From Google Cloud Console -> APIs & Services -> Credentials (OAuth client, desktop app).
  client_id: ""
  client_secret: ""

mailjet:
  # From Mailjet -> Account settings -> REST API keys.
  api_key_public: ""
  api_key_private: ""

sheets:
  # The ID in the spreadsheet URL: https://docs.google.com/spreadsheets/d/<id>/edit
  spreadsheet_id: ""
  # Sheets are named <prefix>-campaign, <prefix>-link, <prefix>-user_agent and <prefix>-region.
  prefix: "Mailjet"
`

// runInit creates a sample configuration file.
func runInit() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	configPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	if config.LocalConfigExists() {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return fmt.Errorf("getting token path: %w", err)
	}

	fmt.Println("Created config file:", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the config file with your credentials")
	fmt.Println("  2. Run 'campaignsync auth' to authorize spreadsheet access")
	fmt.Println("  3. Run 'campaignsync --dry-run' to test")
	fmt.Println()
	fmt.Printf("Token will be stored at: %s\n", tokenPath)

	return nil
}
