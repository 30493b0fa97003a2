package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier posts scheduler failures to an operations channel. A
// notifier with no webhook URL is a no-op, so callers never need to guard
// against an unconfigured channel.
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
}

func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		username:   "trackify-mailer",
	}
}

// DeliveryFailed reports one setting's failed report delivery.
func (s *SlackNotifier) DeliveryFailed(goalID, recipient, errMsg string) error {
	return s.post(slack.Attachment{
		Color: "#FF0000",
		Title: "Monthly report delivery failed",
		Fields: []slack.AttachmentField{
			{Title: "Goal", Value: goalID, Short: true},
			{Title: "Recipient", Value: recipient, Short: true},
			{Title: "Error", Value: errMsg},
		},
		Footer: "Trackify Mailer",
		Ts:     jsonTs(),
	})
}

// TickFailed reports a scheduler tick that could not even enumerate due
// settings.
func (s *SlackNotifier) TickFailed(err error) error {
	return s.post(slack.Attachment{
		Color:  "#FFA500",
		Title:  "Report scheduler tick failed",
		Text:   err.Error(),
		Footer: "Trackify Mailer",
		Ts:     jsonTs(),
	})
}

func (s *SlackNotifier) post(attachment slack.Attachment) error {
	if s == nil || s.webhookURL == "" {
		return nil
	}

	msg := &slack.WebhookMessage{
		Channel:     s.channel,
		Username:    s.username,
		Attachments: []slack.Attachment{attachment},
	}

	if err := slack.PostWebhook(s.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to send slack message: %v", err)
	}
	return nil
}

func jsonTs() json.Number {
	return json.Number(fmt.Sprintf("%d", time.Now().Unix()))
}
