package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"emsforge/config"
)

// Notifier sends the best-effort side-channel messages fired after a
// successful activation: a confirmation email to the registrant and an
// operational Discord alert. Callers log failures and move on; nothing here
// touches subscription state.
type Notifier struct {
	smtpHost     string
	smtpPort     string
	smtpFrom     string
	smtpPassword string

	discordURL string
	appURL     string

	http *http.Client

	// seam for tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg *config.Config) *Notifier {
	return &Notifier{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpFrom:     cfg.SMTPFrom,
		smtpPassword: cfg.SMTPPassword,
		discordURL:   cfg.DiscordWebhookURL,
		appURL:       cfg.AppURL,
		http:         &http.Client{Timeout: 10 * time.Second},
		sendMail:     smtp.SendMail,
	}
}

func (n *Notifier) SendConfirmation(firstName, to, plan, loginToken string) error {
	if n.smtpHost == "" || n.smtpFrom == "" {
		return fmt.Errorf("SMTP configuration missing")
	}

	auth := smtp.PlainAuth("", n.smtpFrom, n.smtpPassword, n.smtpHost)

	link := fmt.Sprintf("%s/dashboard?token=%s", n.appURL, loginToken)
	subject := "Welcome to EMSForge"
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your subscription to <strong>%s</strong> is active.</p><p>Click <a href=%q>here</a> to get started.</p>",
		firstName, plan, link,
	)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + n.smtpFrom + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	return n.sendMail(n.smtpHost+":"+n.smtpPort, auth, n.smtpFrom, []string{to}, message)
}

// SendAlert posts a short line to the configured Discord webhook. A missing
// URL means alerts are disabled, not an error.
func (n *Notifier) SendAlert(email, plan string) error {
	if n.discordURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"content": fmt.Sprintf("New EMSForge subscription: %s (plan: %s)", email, plan),
	})
	if err != nil {
		return err
	}

	resp, err := n.http.Post(n.discordURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}
