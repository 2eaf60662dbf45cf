// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer renders and delivers transactional email.

A [Mailer] formats messages and hands them to a [Sender]: [SMTPSender]
relays through an SMTP server, [LogSender] only logs, for environments
without a relay.
*/
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(
	`<div><h1>To reset password follow the link</h1><a href="{{.Link}}">{{.Link}}</a></div>`,
))

// Mailer builds the application's emails.
type Mailer struct {
	sender Sender
	apiURL string
}

// New creates a Mailer. apiURL is named in subjects so recipients can tell
// deployments apart.
func New(sender Sender, apiURL string) *Mailer {
	return &Mailer{sender: sender, apiURL: strings.TrimRight(apiURL, "/")}
}

// Send delivers an HTML body to a single recipient.
func (mailer *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	return mailer.sender.Send(ctx, Message{To: to, Subject: subject, HTML: body})
}

// SendPasswordReset mails the password reset link.
func (mailer *Mailer) SendPasswordReset(ctx context.Context, to, link string) error {
	var body bytes.Buffer
	if err := passwordResetTemplate.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("mailer: render password reset: %w", err)
	}

	return mailer.Send(ctx, to, "Password resetting for "+mailer.apiURL, body.String())
}
