package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	keyFileName    = "oracle_key"
	keyringService = "revtrust"
	keyringUser    = "oracle_api_key"
	keyEnvVar      = "ORACLE_API_KEY"
	keyFileMode    = 0600
)

var (
	apiKeyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "Oracle API key to store",
		Required: true,
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the adjudication oracle API key",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			apiKeyFlag,
		},
	}
)

func cmdAuth(c *cli.Context) error {
	cfg := getConfig(c)

	key := strings.TrimSpace(c.String(apiKeyFlag.Name))
	if key == "" {
		return cli.ShowSubcommandHelp(c)
	}

	if err := saveOracleKey(cfg.HomeDir, key); err != nil {
		return fmt.Errorf("saving oracle key: %w", err)
	}

	fmt.Println("Oracle API key saved")
	return nil
}

func saveOracleKey(homeDir, key string) error {
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return os.WriteFile(path.Join(homeDir, keyFileName), []byte(key), keyFileMode)
	}

	// Clean up legacy file if it exists
	os.Remove(path.Join(homeDir, keyFileName))

	return nil
}

// getOracleKey resolves the oracle API key: env var first, then the OS
// keychain, then the fallback file. Empty when none is set, which leaves
// the adjudication capability unconfigured.
func getOracleKey(homeDir string) string {
	if key := strings.TrimSpace(os.Getenv(keyEnvVar)); key != "" {
		return key
	}

	if key, err := keyring.Get(keyringService, keyringUser); err == nil && key != "" {
		return key
	}

	b, err := os.ReadFile(path.Join(homeDir, keyFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
