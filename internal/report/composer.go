package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/clients"
	"golang.org/x/sync/errgroup"
)

const bodyTemplate = `
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Monthly Time Report for {{.MonthName}}</h2>
    <p>Here is {{.DisplayName}}'s monthly time tracking report.</p>
    <h3>Summary:</h3>
    <ul>
        <li><strong>Total Hours:</strong> {{printf "%.2f" .TotalHours}} hours</li>
        <li><strong>Total Entries:</strong> {{.EntryCount}}</li>
        <li><strong>Period:</strong> {{.PeriodStart}} - {{.PeriodEnd}}</li>
    </ul>
    <p>Please find the detailed report attached as a PDF.</p>
    <p>Best regards,<br>Trackify Team</p>
</body>
</html>
`

// Report is the assembled content for one monthly report email.
type Report struct {
	Subject    string
	HTMLBody   string
	PDF        []byte
	Month      time.Time
	TotalHours float64
	EntryCount int
}

type bodyData struct {
	MonthName   string
	DisplayName string
	TotalHours  float64
	EntryCount  int
	PeriodStart string
	PeriodEnd   string
}

// Composer assembles report content from the three collaborator services.
// It has no side effects; persisting outcomes is the caller's job.
type Composer struct {
	entries *clients.EntriesClient
	users   *clients.UsersClient
	pdf     *clients.PDFClient
	logger  *slog.Logger
	tmpl    *template.Template

	// now is swapped out in tests to pin the report month.
	now func() time.Time
}

func NewComposer(entries *clients.EntriesClient, users *clients.UsersClient, pdf *clients.PDFClient, logger *slog.Logger) *Composer {
	return &Composer{
		entries: entries,
		users:   users,
		pdf:     pdf,
		logger:  logger,
		tmpl:    template.Must(template.New("report").Parse(bodyTemplate)),
		now:     time.Now,
	}
}

// Compose builds the report for the previous full calendar month: entry
// totals, the owner's display name and the PDF attachment, fetched
// concurrently. Missing entries or profile degrade gracefully; a missing
// PDF aborts the report.
func (c *Composer) Compose(ctx context.Context, goalID uuid.UUID, recipient, ownerID, token string) (*Report, error) {
	now := c.now().UTC()
	firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastOfPrev := firstOfCurrent.AddDate(0, 0, -1)
	firstOfPrev := time.Date(lastOfPrev.Year(), lastOfPrev.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		entries []clients.Entry
		profile clients.Profile
		pdfData []byte
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = c.entries.EntriesForMonth(gctx, goalID, lastOfPrev.Year(), lastOfPrev.Month(), token)
		return err
	})
	g.Go(func() error {
		p, err := c.users.Profile(gctx, ownerID, token)
		if err != nil {
			// The report can still render without the profile; the
			// display name falls back to the recipient address.
			c.logger.Warn("failed to fetch user profile", slog.String("user_id", ownerID), slog.Any("error", err))
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		var err error
		pdfData, err = c.pdf.RenderGoalReport(gctx, goalID, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compose report for goal %s: %w", goalID, err)
	}

	displayName := profile.FullName
	if displayName == "" {
		displayName = profile.GoogleEmail
	}
	if displayName == "" {
		displayName = recipient
	}

	var totalMinutes float64
	for _, entry := range entries {
		totalMinutes += entry.Minutes
	}
	totalHours := totalMinutes / 60

	monthName := lastOfPrev.Format("January 2006")
	var buf bytes.Buffer
	err := c.tmpl.Execute(&buf, bodyData{
		MonthName:   monthName,
		DisplayName: displayName,
		TotalHours:  totalHours,
		EntryCount:  len(entries),
		PeriodStart: firstOfPrev.Format("January 02"),
		PeriodEnd:   lastOfPrev.Format("January 02, 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report body: %v", err)
	}

	return &Report{
		Subject:    "Monthly Time Report - " + monthName,
		HTMLBody:   buf.String(),
		PDF:        pdfData,
		Month:      firstOfPrev,
		TotalHours: totalHours,
		EntryCount: len(entries),
	}, nil
}
