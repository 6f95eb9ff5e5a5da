package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
)

func TestNewPicksTransport(t *testing.T) {
	assert.IsType(t, &DevSender{}, New(config.EmailConfig{DevMode: true, MailerSendKey: "k"}))
	assert.IsType(t, &MailerSendSender{}, New(config.EmailConfig{MailerSendKey: "k", SMTPFrom: "a@b.com"}))
	assert.IsType(t, &SMTPSender{}, New(config.EmailConfig{SMTPHost: "localhost", SMTPPort: 1025}))
}

func TestDisabledMailerSendFails(t *testing.T) {
	err := NewMailerSend("", "x", "a@b.com").Send(context.Background(), Message{To: "c@d.com"})
	assert.Error(t, err)
}

func TestSMTPRejectsEmptyRecipient(t *testing.T) {
	err := NewSMTPSender("localhost", 1025, "a@b.com", "", "", false).Send(context.Background(), Message{To: "  "})
	assert.Error(t, err)
}

func TestBuildMIME(t *testing.T) {
	body := string(buildMIME("from@x.com", "to@x.com", Message{Subject: "Hi", Text: "plain", HTML: "<b>rich</b>"}))

	assert.Contains(t, body, "Subject: Hi\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "plain")
	assert.Contains(t, body, "<b>rich</b>")
	assert.True(t, strings.HasSuffix(body, "--alt-boundary--\r\n"))
}

func TestOTPEmail(t *testing.T) {
	msg := OTPEmail("a@b.com", "123456", "password_reset", 5*time.Minute)

	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "Your password reset code", msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.Text, "5 minutes")
}

func TestBookingConfirmationEscapesTitle(t *testing.T) {
	msg := BookingConfirmationEmail("a@b.com", "<script>", "2024-03-10", "2024-03-12", 2, 200, 9)

	require.NotEmpty(t, msg.HTML)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "2 days")
	assert.Contains(t, msg.Subject, "#9")
}
