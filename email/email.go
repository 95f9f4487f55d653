package email

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"fundfinder-backend/config"
)

var ErrNotConfigured = errors.New("SMTP settings missing")

type Mailer struct {
	host, port string
	user, pass string
	from       string
	freeLimit  int
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	log        zerolog.Logger
}

func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		user:      cfg.SMTPUser,
		pass:      cfg.SMTPPass,
		from:      from,
		freeLimit: cfg.FreeDailyLimit,
		sendMail:  smtp.SendMail,
		log:       logger.With().Str("service", "email").Logger(),
	}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.host == "" || m.port == "" || m.user == "" || m.pass == "" || m.from == "" {
		return ErrNotConfigured
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s", m.from, to, subject, body))
	return m.sendMail(addr, auth, m.from, []string{to}, msg)
}

func (m *Mailer) SendWelcome(to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nThanks for joining FundFinder. You can run %d free funding searches every day.\n", name, m.freeLimit)
	if err := m.send(to, "Welcome to FundFinder", body); err != nil {
		return err
	}
	m.log.Info().Str("to", to).Msg("welcome sent")
	return nil
}

func (m *Mailer) SendProActivated(to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour payment went through. Your account is now Pro with unlimited daily searches.\n", name)
	if err := m.send(to, "Your FundFinder Pro upgrade", body); err != nil {
		return err
	}
	m.log.Info().Str("to", to).Msg("pro activation sent")
	return nil
}

// SendUpgradeSuggestion promotes the Pro upgrade to a free user who ran out
// of searches.
func (m *Mailer) SendUpgradeSuggestion(to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYou used all of yesterday's free searches. Upgrade to Pro for unlimited funding searches.\n", name)
	if err := m.send(to, "Need more funding searches?", body); err != nil {
		return err
	}
	m.log.Info().Str("to", to).Msg("upgrade suggestion sent")
	return nil
}
