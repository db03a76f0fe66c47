// Package mailer delivers verification messages. The engine treats
// delivery as fire-and-forget blocking I/O: a failure is reported once
// and never retried here.
package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender is implemented by outbound transports. Implementations must
// honor ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationLinkMessage builds the email for the link-token flow.
// The raw secret appears only in the generated URL.
func VerificationLinkMessage(to, name, baseURL, token string) Message {
	verifyURL := fmt.Sprintf(
		"%s?token=%s&email=%s",
		baseURL,
		url.QueryEscape(token),
		url.QueryEscape(to),
	)

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Click the link below to verify your email address:</p>
<p><a href="%s">Verify email</a></p>
<p>This link expires soon, so don't wait too long.</p>`,
		html.EscapeString(name), verifyURL)

	return Message{
		To:       to,
		Subject:  "Verify your email",
		HTMLBody: body,
	}
}

// VerificationOTPMessage builds the email for the passcode flow.
func VerificationOTPMessage(to, name, otp string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your verification code is:</p>
<p><strong>%s</strong></p>
<p>Enter it in the app to finish signing up. The code expires soon.</p>`,
		html.EscapeString(name), html.EscapeString(otp))

	return Message{
		To:       to,
		Subject:  "Your verification code",
		HTMLBody: body,
	}
}
