package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Update the résumé once",
	Long: `Runs a single refresh cycle: the résumé is published with the stored
access token, refreshing the tokens once if they were rejected. Without
stored tokens the authorization code from the config is exchanged first.`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.refresher.OnTick(ctx); err != nil {
		if errors.Is(err, domain.ErrTickInProgress) {
			cmd.Println("A refresh is already running.")
			return nil
		}
		return fmt.Errorf("refresh failed: %w", err)
	}

	cmd.Printf("Résumé %s updated.\n", settings.Resume.ID)
	return nil
}
