// Package notify emails the site owner when a contact form is submitted.
package notify

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/acgh213/reelfolio/internal/config"
	"github.com/acgh213/reelfolio/internal/submissions"
)

type Notifier interface {
	SubmissionReceived(sub submissions.Submission) error
}

// Nop is used when SMTP is not configured.
type Nop struct{}

func (Nop) SubmissionReceived(submissions.Submission) error { return nil }

type smtpNotifier struct {
	from string
	to   string
	send func(...*gomail.Message) error
}

func NewSMTPNotifier(cfg config.SMTPConfig) Notifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &smtpNotifier{from: from, to: cfg.NotifyTo, send: d.DialAndSend}
}

func (n *smtpNotifier) SubmissionReceived(sub submissions.Submission) error {
	if err := n.send(n.message(sub)); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

func (n *smtpNotifier) message(sub submissions.Submission) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetAddressHeader("Reply-To", sub.Email, sub.Name)
	m.SetHeader("Subject", "New contact message from "+oneLine(sub.Name))

	body := fmt.Sprintf("Name: %s\nEmail: %s\nReceived: %s\n\n%s\n",
		sub.Name, sub.Email, sub.Timestamp.Format("2006-01-02 15:04 MST"), sub.Message)
	m.SetBody("text/plain", body)
	return m
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
