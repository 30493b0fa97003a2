package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MailStatus string

const (
	StatusPending   MailStatus = "pending"
	StatusScheduled MailStatus = "scheduled"
	StatusSent      MailStatus = "sent"
	StatusFailed    MailStatus = "failed"
	StatusSkipped   MailStatus = "skipped"
)

// Mail is one row of the mails table. A row with a RelatedGoalID and a
// SendDay acts as the report settings for that goal; rows without them are
// plain draft mail records.
type Mail struct {
	MailID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"mail_id"`
	OwnerUserID   string     `gorm:"index;not null" json:"owner_user_id"`
	RelatedGoalID *uuid.UUID `gorm:"type:uuid;index" json:"related_goal_id"`
	Recipient     string     `gorm:"not null" json:"recipient"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	PDFURL        string     `gorm:"column:pdf_url" json:"pdf_url,omitempty"`

	// SendDay is the configured day of month (1-31), stored in the
	// sent_when column. Days past the end of a short month fire on the
	// month's last day.
	SendDay *int       `gorm:"column:sent_when;index" json:"send_day,omitempty"`
	Enabled bool       `gorm:"default:false;index" json:"enabled"`
	Status  MailStatus `gorm:"size:20;default:pending;index" json:"status"`

	ErrorMessage string     `json:"error_message,omitempty"`
	LastSentAt   *time.Time `json:"last_sent_at"`
	SentAt       *time.Time `json:"sent_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Mail) TableName() string { return "mails" }

func (m *Mail) BeforeCreate(tx *gorm.DB) error {
	if m.MailID == uuid.Nil {
		m.MailID = uuid.New()
	}
	return nil
}

// SentThisMonth reports whether the row's last successful send falls in the
// same calendar month as now.
func (m *Mail) SentThisMonth(now time.Time) bool {
	if m.LastSentAt == nil {
		return false
	}
	last := m.LastSentAt.UTC()
	return last.Year() == now.Year() && last.Month() == now.Month()
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeRecipients validates a comma-separated recipient list and returns
// it in canonical ", "-joined form.
func NormalizeRecipients(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("at least one recipient email is required")
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.TrimSpace(part)
		if email == "" {
			continue
		}
		if !emailPattern.MatchString(email) {
			return "", fmt.Errorf("invalid email address: %s", email)
		}
		out = append(out, email)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("at least one recipient email is required")
	}
	return strings.Join(out, ", "), nil
}

// SplitRecipients breaks a canonical recipient string back into individual
// addresses for the SMTP envelope.
func SplitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(part); email != "" {
			out = append(out, email)
		}
	}
	return out
}
