package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/client"
)

func newLogoutCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: `Removes the stored API key from ~/.config/ort/config.yaml.

With --revoke the key is also deleted on the server, so copies of it stop
working too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(revoke)
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "also revoke the key on the server")
	return cmd
}

func runLogout(revoke bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" {
		fmt.Println("Not logged in.")
		warnIfEnvKey()
		return nil
	}

	serverURL := getServerURL()
	if revoke {
		if err := revokeKey(client.New(serverURL, cfg.APIKey), cfg.APIKey); err != nil {
			return fmt.Errorf("revoking key: %w", err)
		}
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if revoke {
		fmt.Printf("✓ Logged out of %s. API key revoked.\n", serverURL)
	} else {
		fmt.Printf("✓ Logged out of %s. API key removed.\n", serverURL)
	}
	warnIfEnvKey()
	return nil
}

// revokeKey deletes rawKey on the server, identifying it by its stored prefix.
func revokeKey(c *client.Client, rawKey string) error {
	keys, err := c.ListKeys()
	if err != nil {
		return err
	}

	var matches []client.APIKey
	for _, k := range keys {
		if k.KeyPrefix != "" && strings.HasPrefix(rawKey, k.KeyPrefix) {
			matches = append(matches, k)
		}
	}
	switch len(matches) {
	case 0:
		return fmt.Errorf("key not found on server")
	case 1:
		return c.DeleteKey(matches[0].ID)
	default:
		return fmt.Errorf("%d keys share prefix %s; revoke with DELETE /api/keys/{id}", len(matches), matches[0].KeyPrefix)
	}
}

func warnIfEnvKey() {
	if os.Getenv("ORT_API_KEY") != "" {
		warnf("ORT_API_KEY is set; commands will keep using it")
	}
}
