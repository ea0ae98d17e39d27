package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored moderator API key",
		Long: `Removes the stored API key from ~/.config/fn/config.yaml. The server URL
is kept so a later "fn login" talks to the same forum.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout())
		},
	}
}

func runLogout(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(w, "Not logged in.")
	} else {
		cfg.APIKey = ""
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "✓ Logged out of %s. API key removed.\n", getServerURL())
	}

	if os.Getenv("FN_API_KEY") != "" {
		fmt.Fprintln(w, "Note: FN_API_KEY is still set and will keep authenticating requests.")
	}
	return nil
}
