package integration

import (
	"context"
	"fmt"
)

// Channel is a delivery medium a tenant configures providers for.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelChat  Channel = "chat"
	ChannelInApp Channel = "in_app"
)

// ProviderID identifies a delivery vendor, e.g. "postmark".
type ProviderID string

// Credentials holds decrypted provider secrets. Each provider reads the
// fields it needs and ignores the rest.
type Credentials struct {
	APIKey     string `json:"apiKey,omitempty"`
	SecretKey  string `json:"secretKey,omitempty"`
	User       string `json:"user,omitempty"`
	Password   string `json:"password,omitempty"`
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Secure     string `json:"secure,omitempty"`
	Region     string `json:"region,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	From       string `json:"from,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

// CredentialSet is one configured integration. It is treated as an immutable
// value for the duration of a dispatch.
type CredentialSet struct {
	ID            string
	TenantID      string
	EnvironmentID string
	Channel       Channel
	Provider      ProviderID
	Credentials   Credentials
	Active        bool
}

// Query selects the credential set to use for a dispatch.
// ActorID is informational and may be empty.
type Query struct {
	TenantID      string
	EnvironmentID string
	Channel       Channel
	ActorID       string
}

// Validate checks that the query identifies a tenant, environment and channel.
func (q Query) Validate() error {
	switch {
	case q.TenantID == "":
		return fmt.Errorf("%w: tenant id is required", ErrInvalidQuery)
	case q.EnvironmentID == "":
		return fmt.Errorf("%w: environment id is required", ErrInvalidQuery)
	case q.Channel == "":
		return fmt.Errorf("%w: channel is required", ErrInvalidQuery)
	}
	return nil
}

// Store loads credential sets. Implementations must be safe for concurrent use,
// return only active sets for the exact tenant/environment/channel tuple and
// return ErrCredentialNotFound when nothing matches.
type Store interface {
	FindActive(ctx context.Context, q Query) (*CredentialSet, error)
}
