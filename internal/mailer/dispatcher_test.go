package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendRequiresConfiguration(t *testing.T) {
	d := NewDispatcher("", 587, "", "")
	_, err := d.Send("user@example.com", "Subject", "<html></html>", nil, "")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSendRequiresRecipients(t *testing.T) {
	d := NewDispatcher("smtp.example.com", 587, "reports@trackify.app", "secret")
	_, err := d.Send("  ,  ", "Subject", "<html></html>", nil, "")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSendUnreachableHost(t *testing.T) {
	// Nothing listens on port 1; the dial fails fast.
	d := NewDispatcher("127.0.0.1", 1, "reports@trackify.app", "secret")
	_, err := d.Send("user@example.com", "Subject", "<html></html>", []byte("pdf"), "report_2026_01.pdf")
	assert.ErrorIs(t, err, ErrUnavailable)
}
