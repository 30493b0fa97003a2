package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/trackify/mailer/internal/api/client"
)

func NewMailsCommand() *cobra.Command {
	var (
		page     int
		pageSize int
		status   string
	)

	mailsCmd := &cobra.Command{
		Use:   "mails",
		Short: "List mail records",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := client.NewClient()
			if err != nil {
				return err
			}

			mails, total, err := apiClient.ListMails(page, pageSize, status)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tRECIPIENT\tSUBJECT\tSTATUS\tSENT AT\t")
			for _, m := range mails {
				sentAt := "-"
				if m.SentAt != nil {
					sentAt = m.SentAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
					m.MailID, m.Recipient, m.Subject, m.Status, sentAt)
			}
			w.Flush()

			fmt.Printf("\n%d of %d mails (page %d)\n", len(mails), total, page)
			return nil
		},
	}

	mailsCmd.Flags().IntVar(&page, "page", 1, "Page number")
	mailsCmd.Flags().IntVar(&pageSize, "page-size", 10, "Results per page")
	mailsCmd.Flags().StringVar(&status, "status", "", "Filter by status (pending/scheduled/sent/failed)")

	return mailsCmd
}
