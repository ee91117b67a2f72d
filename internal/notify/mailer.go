package notify

import (
	"context"
	"fmt"
	"io"

	"pdks-backend/config"

	"gopkg.in/gomail.v2"
)

// ReportSender delivers the daily attendance summary.
type ReportSender interface {
	SendDailyReport(ctx context.Context, date string, sessions int, csv []byte) error
}

type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	recipients []string
}

func NewMailer(cfg config.MailConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		dialer:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:       from,
		recipients: cfg.Recipients,
	}
}

func (m *Mailer) SendDailyReport(ctx context.Context, date string, sessions int, csv []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.dailyReport(date, sessions, csv)); err != nil {
		return fmt.Errorf("mailer: send daily report %s: %w", date, err)
	}
	return nil
}

func (m *Mailer) dailyReport(date string, sessions int, csv []byte) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.recipients...)
	msg.SetHeader("Subject", fmt.Sprintf("Attendance report %s", date))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Daily aggregation for %s finished.\n%d session(s) were finalized. The attached CSV lists every session.\n",
		date, sessions,
	))
	msg.Attach(fmt.Sprintf("attendance_%s.csv", date), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(csv)
		return err
	}))
	return msg
}
