// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer sends account emails over SMTP. Without an SMTP host
// configured it logs the verification link instead of sending, so
// development setups work with no mail server.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
)

// Config holds the SMTP server settings and the public base URL links
// are built on.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	BaseURL  string
}

// Mailer sends transactional mail for the application.
type Mailer struct {
	cfg Config
}

// New creates a Mailer.
func New(cfg Config) *Mailer {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Mailer{cfg: cfg}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendVerification mails the email-verification link for a freshly
// registered account. Disabled mailers log the link and report
// success.
func (m *Mailer) SendVerification(toEmail, toName, token string) error {
	link := m.verificationLink(token)

	if !m.Enabled() {
		slog.Info("smtp not configured, logging verification link instead",
			"email", toEmail,
			"url", link)
		return nil
	}

	subject := "Verify your email address"
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"Thanks for registering. Open the link below to verify your email address:\r\n\r\n"+
			"%s\r\n\r\n"+
			"The link expires in 24 hours. If you did not register, ignore this email.\r\n",
		toName, link)

	return m.send(toEmail, subject, body)
}

// verificationLink builds the front-end verification URL carrying the
// token.
func (m *Mailer) verificationLink(token string) string {
	return fmt.Sprintf("%s/verify?token=%s", m.cfg.BaseURL, url.QueryEscape(token))
}

// send delivers one plain-text message. Servers advertising STARTTLS
// are upgraded by net/smtp automatically.
func (m *Mailer) send(toEmail, subject, body string) error {
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, toEmail, subject, body)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", toEmail, err)
	}

	slog.Info("email sent", "email", toEmail, "subject", subject)
	return nil
}

// buildMessage assembles RFC 5322 headers and the body.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
