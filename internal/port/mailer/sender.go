// Package mailer defines the port for relaying outgoing email.
package mailer

import "context"

// Message is a plain-text email. The sender identity comes from the relay
// configuration.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender relays messages.
type Sender interface {
	// Configured reports whether sender identity, credential and host are set.
	Configured() bool
	Send(ctx context.Context, msg Message) error
}
