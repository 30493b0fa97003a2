package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/trackify/mailer/internal/api/client"
)

func NewSendNowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send-now <goal-id>",
		Short: "Send a goal's monthly report immediately",
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

			result, err := apiClient.SendNow(goalID)
			if err != nil {
				return err
			}

			fmt.Println(result.Message)
			return nil
		},
	}
}
