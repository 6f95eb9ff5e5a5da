package mailer

import (
	"fmt"
	"html"
	"time"
)

func OTPEmail(to, code, purpose string, ttl time.Duration) Message {
	subject := "Your verification code"
	intro := "Use this code to finish creating your account."
	if purpose == "password_reset" {
		subject = "Your password reset code"
		intro = "Use this code to reset your password."
	}
	minutes := int(ttl.Minutes())

	return Message{
		To:      to,
		Subject: subject,
		Text:    fmt.Sprintf("%s\n\nCode: %s\n\nThe code expires in %d minutes.", intro, code, minutes),
		HTML: fmt.Sprintf(`
		<p>%s</p>
		<p style="font-size: 24px;"><strong>%s</strong></p>
		<p>The code expires in %d minutes.</p>`, intro, code, minutes),
	}
}

func BookingConfirmationEmail(to, itemTitle, startDate, endDate string, days int, total float64, bookingID int64) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Booking #%d received", bookingID),
		Text: fmt.Sprintf("We received your booking for %s from %s to %s (%d days). Total: %.2f. Status: pending.",
			itemTitle, startDate, endDate, days, total),
		HTML: fmt.Sprintf(`
		<h2>Booking #%d received</h2>
		<p>%s, %s to %s (%d days)</p>
		<p>Total: <strong>%.2f</strong></p>
		<p>We will let you know once it is confirmed.</p>`,
			bookingID, html.EscapeString(itemTitle), startDate, endDate, days, total),
	}
}

func BookingStatusEmail(to string, bookingID int64, status, reason string) Message {
	text := fmt.Sprintf("Booking #%d is now %s.", bookingID, status)
	if reason != "" {
		text += " Reason: " + reason
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Booking #%d %s", bookingID, status),
		Text:    text,
		HTML:    "<p>" + html.EscapeString(text) + "</p>",
	}
}
