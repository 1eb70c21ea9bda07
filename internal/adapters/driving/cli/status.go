package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/services"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored tokens and recent refreshes",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", services.DefaultHistoryLimit, "Number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStores(ctx, settings)
	if err != nil {
		return err
	}
	defer st.Close()

	status, err := services.NewStatusService(settings.Resume.ID, st.tokens, st.scheduler).Status(ctx, statusLimit)
	if err != nil {
		return err
	}

	resumeID := status.ResumeID
	if resumeID == "" {
		resumeID = "(not set)"
	}
	cmd.Printf("Résumé:        %s\n", resumeID)
	cmd.Printf("Storage:       %s (%s)\n", settings.Storage.Backend, status.Namespace)
	cmd.Printf("Access token:  %s\n", presence(status.HasAccessToken))
	cmd.Printf("Refresh token: %s\n", presence(status.HasRefreshToken))
	cmd.Println()

	task := status.Task
	if task == nil {
		cmd.Println("The refresh task has not been scheduled yet.")
		return nil
	}
	cmd.Printf("Interval:      %s\n", task.Interval)
	cmd.Printf("Last run:      %s\n", formatTime(task.LastRun))
	cmd.Printf("Last success:  %s\n", formatTime(task.LastSuccess))
	cmd.Printf("Next run:      %s\n", formatTime(task.NextRun))
	if task.LastError != "" {
		cmd.Printf("Last error:    %s\n", task.LastError)
	}

	if len(status.History) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Recent runs:")
	for _, result := range status.History {
		outcome := "ok"
		if !result.Success {
			outcome = "failed: " + result.Error
		}
		cmd.Printf("  %s  %6s  %s\n",
			formatTime(result.StartedAt), result.Duration().Round(time.Millisecond), outcome)
	}
	return nil
}

func presence(ok bool) string {
	if ok {
		return "stored"
	}
	return "missing"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
