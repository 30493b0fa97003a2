package mailer

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/models"
	"gopkg.in/gomail.v2"
)

// Dispatch failure taxonomy. The scheduler and the send-now handler branch
// on these to produce a meaningful error_message / response status.
var (
	// ErrConfig means the dispatcher itself is misconfigured (missing
	// sender or SMTP host) or was handed an empty recipient list.
	ErrConfig = errors.New("mailer is not configured")
	// ErrUnavailable is a transport-level failure reaching the SMTP host.
	ErrUnavailable = errors.New("mail transport unavailable")
	// ErrRejected means the provider accepted the connection but declined
	// the message.
	ErrRejected = errors.New("mail provider rejected the send")
)

// Dispatcher wraps the SMTP transport. One Send delivers one message to one
// or more comma-separated recipients, with an optional PDF attachment.
type Dispatcher struct {
	dialer *gomail.Dialer
	sender string
	host   string
}

func NewDispatcher(host string, port int, sender, password string) *Dispatcher {
	return &Dispatcher{
		dialer: gomail.NewDialer(host, port, sender, password),
		sender: sender,
		host:   host,
	}
}

// Send dispatches one email and returns the message id it was sent under.
func (d *Dispatcher) Send(recipients, subject, htmlBody string, attachment []byte, filename string) (string, error) {
	if d.host == "" || d.sender == "" {
		return "", fmt.Errorf("%w: SMTP host and sender are required", ErrConfig)
	}

	to := models.SplitRecipients(recipients)
	if len(to) == 0 {
		return "", fmt.Errorf("%w: at least one recipient is required", ErrConfig)
	}

	messageID := fmt.Sprintf("<%s@trackify-mailer>", uuid.New())

	m := gomail.NewMessage()
	m.SetHeader("From", d.sender)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", htmlBody)

	if len(attachment) > 0 && filename != "" {
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}

	sender, err := d.dialer.Dial()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer sender.Close()

	if err := gomail.Send(sender, m); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRejected, err)
	}

	return messageID, nil
}
