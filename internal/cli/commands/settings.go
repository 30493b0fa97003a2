package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/trackify/mailer/internal/api/client"
)

func NewSettingsCommand() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage per-goal report settings",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List report settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := client.NewClient()
			if err != nil {
				return err
			}

			settings, err := apiClient.ListSettings()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "GOAL\tRECIPIENT\tENABLED\tDAY\tSTATUS\tLAST SENT\t")
			for _, s := range settings {
				lastSent := "never"
				if s.LastSentAt != nil {
					lastSent = s.LastSentAt.Format("2006-01-02")
				}
				day := 0
				if s.SendDay != nil {
					day = *s.SendDay
				}
				goal := ""
				if s.GoalID != nil {
					goal = s.GoalID.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\t%s\t\n",
					goal, s.RecipientEmail, s.Enabled, day, s.Status, lastSent)
			}
			return w.Flush()
		},
	}

	var (
		recipient string
		enabled   bool
		sendDay   int
	)
	setCmd := &cobra.Command{
		Use:   "set <goal-id>",
		Short: "Create or update report settings for a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goalID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid goal id: %v", err)
			}

			apiClient, err := client.NewClient()
			if err != nil {
				return err
			}

			settings, err := apiClient.UpsertSettings(goalID, recipient, enabled, sendDay)
			if err != nil {
				return err
			}

			fmt.Printf("Settings saved for goal %s (send day %d, enabled %t)\n",
				goalID, *settings.SendDay, settings.Enabled)
			return nil
		},
	}
	setCmd.Flags().StringVar(&recipient, "recipient", "", "Comma-separated recipient emails")
	setCmd.Flags().BoolVar(&enabled, "enabled", true, "Enable scheduled sending")
	setCmd.Flags().IntVar(&sendDay, "day", 1, "Day of month to send (1-31)")
	setCmd.MarkFlagRequired("recipient")

	deleteCmd := &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete report settings for a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goalID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid goal id: %v", err)
			}

			apiClient, err := client.NewClient()
			if err != nil {
				return err
			}

			if err := apiClient.DeleteSettings(goalID); err != nil {
				return err
			}

			fmt.Printf("Settings deleted for goal %s\n", goalID)
			return nil
		},
	}

	settingsCmd.AddCommand(listCmd, setCmd, deleteCmd)
	return settingsCmd
}
