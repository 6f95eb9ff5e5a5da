package mailer

import (
	"context"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport from configuration: dev mode logs messages,
// a MailerSend key selects the MailerSend API, otherwise plain SMTP.
func New(cfg config.EmailConfig) Sender {
	switch {
	case cfg.DevMode:
		logger.Info("Mailer running in dev mode, emails are logged only")
		return NewDevSender()
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
