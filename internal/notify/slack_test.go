package notify

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredNotifierIsNoOp(t *testing.T) {
	n := NewSlackNotifier("", "#ops")
	assert.NoError(t, n.DeliveryFailed("goal", "a@example.com", "boom"))
	assert.NoError(t, n.TickFailed(errors.New("boom")))
}

func TestDeliveryFailedPostsAttachment(t *testing.T) {
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "#mailer-ops")
	require.NoError(t, n.DeliveryFailed("goal-1", "jane@example.com", "pdf service returned status 500"))

	assert.Equal(t, "#mailer-ops", got.Channel)
	assert.Equal(t, "trackify-mailer", got.Username)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "Monthly report delivery failed", got.Attachments[0].Title)
	require.Len(t, got.Attachments[0].Fields, 3)
	assert.Equal(t, "jane@example.com", got.Attachments[0].Fields[1].Value)
}

func TestTickFailedPostsAttachment(t *testing.T) {
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "#mailer-ops")
	require.NoError(t, n.TickFailed(errors.New("connection refused")))

	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "Report scheduler tick failed", got.Attachments[0].Title)
	assert.Equal(t, "connection refused", got.Attachments[0].Text)
}
