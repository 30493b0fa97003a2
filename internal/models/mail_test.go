package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecipients(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "single", input: "a@example.com", want: "a@example.com"},
		{name: "multiple with whitespace", input: " a@example.com , b@example.com ", want: "a@example.com, b@example.com"},
		{name: "trailing comma", input: "a@example.com,", want: "a@example.com"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "only commas", input: ",,,", wantErr: true},
		{name: "invalid address", input: "a@example.com, not-an-email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRecipients(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, SplitRecipients("a@example.com, b@example.com"))
	assert.Empty(t, SplitRecipients(" , "))
}

func TestSentThisMonth(t *testing.T) {
	now := time.Date(2026, time.February, 28, 6, 0, 0, 0, time.UTC)

	m := &Mail{}
	assert.False(t, m.SentThisMonth(now))

	sameMonth := time.Date(2026, time.February, 20, 9, 0, 0, 0, time.UTC)
	m.LastSentAt = &sameMonth
	assert.True(t, m.SentThisMonth(now))

	prevMonth := time.Date(2026, time.January, 28, 9, 0, 0, 0, time.UTC)
	m.LastSentAt = &prevMonth
	assert.False(t, m.SentThisMonth(now))

	// Same month number, different year.
	lastYear := time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC)
	m.LastSentAt = &lastYear
	assert.False(t, m.SentThisMonth(now))
}
