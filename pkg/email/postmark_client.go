package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

// PostmarkAPI is the subset of *postmark.Client used by the sender.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

type postmarkSender struct {
	client  PostmarkAPI
	from    string
	replyTo string
}

// NewPostmarkSender builds a Postmark sender. creds.APIKey is the server token;
// creds.SecretKey, the account token, is optional.
func NewPostmarkSender(_ context.Context, creds integration.Credentials, from string) (Sender, error) {
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	return NewPostmarkSenderWithClient(postmark.NewClient(creds.APIKey, creds.SecretKey), from, creds.From)
}

// NewPostmarkSenderWithClient builds a sender around an existing client.
// replyTo may be empty.
func NewPostmarkSenderWithClient(client PostmarkAPI, from, replyTo string) (Sender, error) {
	if !IsValidAddress(from) {
		return nil, fmt.Errorf("%w: sender must be a valid email address", ErrInvalidConfig)
	}
	return &postmarkSender{client: client, from: from, replyTo: replyTo}, nil
}

// Send implements Sender. Recipients share one Postmark request.
func (c *postmarkSender) Send(ctx context.Context, msg Message) error {
	msg.From = c.from
	if err := msg.Validate(); err != nil {
		return err
	}

	email := postmark.Email{
		From:       c.from,
		To:         strings.Join(msg.To, ","),
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}
	if c.replyTo != "" && c.replyTo != c.from {
		email.ReplyTo = c.replyTo
	}

	resp, err := c.client.SendEmail(ctx, email)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
