package common

import "github.com/rs/zerolog"

// EmailSender delivers a single message. The deployments this backend runs
// in hand delivery to a relay, so the contract stays minimal.
type EmailSender interface {
	Send(to, subject, html string) error
}

// LogEmailSender writes the message to the log instead of delivering it.
// Used until a relay is configured, and in local development.
type LogEmailSender struct {
	Log zerolog.Logger
}

// Send logs the message and reports success.
func (l LogEmailSender) Send(to, subject, _ string) error {
	l.Log.Info().Str("to", to).Str("subject", subject).Msg("email (log only)")
	return nil
}

// InMemoryEmail captures messages for assertions in tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Email is one captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}
