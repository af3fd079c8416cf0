package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Sender delivers a fully rendered message. Every provider implements it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Message is an outbound email. All recipients are sent as one provider call.
type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Tag     string   `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidAddress reports whether s looks like a bare email address.
func IsValidAddress(s string) bool {
	return emailRegex.MatchString(s)
}

// Validate checks the message before it is handed to a provider.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("%w: To is required", ErrInvalidParams)
	}
	for _, to := range m.To {
		if !IsValidAddress(to) {
			return fmt.Errorf("%w: To must contain valid email addresses, got %q", ErrInvalidParams, to)
		}
	}
	if !IsValidAddress(m.From) {
		return fmt.Errorf("%w: From must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("%w: HTML is required", ErrInvalidParams)
	}
	return nil
}
