package mailer

import "context"

// Message is the provider-independent shape of one outgoing email.
type Message struct {
	FromName  string
	FromEmail string
	ToName    string
	ToEmail   string
	Subject   string
	Text      string
	HTML      string

	// IdempotencyKey deterministically identifies this send, e.g.
	// "<lessonID>:admin". It travels with the message so a retry after a
	// dispatch-succeeded-but-flag-update-failed race can be deduplicated
	// downstream.
	IdempotencyKey string
}

// Mailer is the email gateway contract. A send either succeeds or returns an
// error; the sweeps treat any error as retryable on the next invocation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
