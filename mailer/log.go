package mailer

import (
	"context"
	"log"
)

// LogSender is a development transport that writes messages to the
// process log instead of delivering them. The log line carries the
// verification secret (it is the delivery channel); never use this
// sender in production.
type LogSender struct{}

// Send logs the message envelope and body.
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("mailer: === EMAIL ===")
	log.Printf("mailer: To: %s", msg.To)
	log.Printf("mailer: Subject: %s", msg.Subject)
	log.Printf("mailer: Body: %s", msg.HTMLBody)
	log.Printf("mailer: =============")
	return nil
}
