package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trackify/mailer/internal/cli/commands"
)

var rootCmd = &cobra.Command{
	Use:   "trackify-mail",
	Short: "Trackify Mailer CLI - manage monthly report emails",
	Long: `Trackify Mailer CLI is a command-line tool for operating the mailer service.
It manages per-goal report settings, triggers immediate report sends and
inspects mail history.`,
}

func init() {
	// Add commands
	rootCmd.AddCommand(commands.NewSettingsCommand())
	rootCmd.AddCommand(commands.NewSendNowCommand())
	rootCmd.AddCommand(commands.NewMailsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
