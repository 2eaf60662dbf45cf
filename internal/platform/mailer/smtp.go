// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPConfig describes the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS makes STARTTLS mandatory; otherwise it is used when offered.
	TLS bool
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender creates a sender for config. No connection is opened until
// the first Send.
func NewSMTPSender(config SMTPConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, errors.New("mailer: SMTP host is required")
	}

	policy := mail.TLSOpportunistic
	if config.TLS {
		policy = mail.TLSMandatory
	}

	options := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(smtpTimeout),
		mail.WithTLSPolicy(policy),
	}

	// Only authenticate when credentials are configured.
	if config.Username != "" && config.Password != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("mailer: create SMTP client: %w", err)
	}

	return &SMTPSender{client: client, from: config.From}, nil
}

// Send dials the relay and delivers message.
func (sender *SMTPSender) Send(ctx context.Context, message Message) error {
	msg := mail.NewMsg()
	if err := msg.From(sender.from); err != nil {
		return fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)

	if err := sender.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}

	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message. The body is included at debug level only.
func (sender *LogSender) Send(ctx context.Context, message Message) error {
	sender.logger.InfoContext(ctx, "mail_not_sent_no_relay",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
	sender.logger.DebugContext(ctx, "mail_body", slog.String("html", message.HTML))
	return nil
}
