package mailer

import (
	"context"

	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
)

type DevSender struct{}

func NewDevSender() *DevSender {
	return &DevSender{}
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "[DEV MAIL]",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
