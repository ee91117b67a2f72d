package notify

import (
	"bytes"
	"context"
	"testing"

	"pdks-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReportMessage(t *testing.T) {
	m := NewMailer(config.MailConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   587,
		Username:   "kiosk@example.com",
		Recipients: []string{"hr@example.com", "ops@example.com"},
	})

	var buf bytes.Buffer
	_, err := m.dailyReport("2024-03-01", 12, []byte("date,employee\n")).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Attendance report 2024-03-01")
	assert.Contains(t, raw, "From: kiosk@example.com")
	assert.Contains(t, raw, "hr@example.com")
	assert.Contains(t, raw, "attendance_2024-03-01.csv")
	assert.Contains(t, raw, "12 session(s) were finalized")
}

func TestSendDailyReportHonoursCancelledContext(t *testing.T) {
	m := NewMailer(config.MailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SendDailyReport(ctx, "2024-03-01", 0, nil), context.Canceled)
}
