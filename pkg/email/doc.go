// Package email sends rendered messages through a tenant's configured email
// provider.
//
// Every provider implements the single-method Sender interface, so callers
// never inspect vendor types. A Registry maps a provider id, as stored on an
// integration, to a Factory that builds a Sender from the integration's
// decrypted credentials:
//
//	registry := email.DefaultRegistry(email.WithDevDirectory("./tmp/emails"))
//
//	sender, err := registry.HandlerFor(ctx, credentialSet, "team@acme.test")
//	if errors.Is(err, email.ErrUnknownProvider) {
//	    // deployment is missing a provider, page someone
//	}
//	err = sender.Send(ctx, email.Message{
//	    To:      []string{"user@example.com"},
//	    Subject: "Welcome",
//	    HTML:    "<p>Hello</p>",
//	})
//
// # Providers
//
//   - "postmark": Postmark transactional API. APIKey is the server token.
//   - "smtp": any SMTP relay. Host, Port, User, Password and Secure
//     ("auto", "starttls", "ssl" or "none").
//   - "s3": stores each message as .html and .json objects in a bucket.
//     Useful for staging environments. Region, Bucket, APIKey/SecretKey and
//     an optional Endpoint for S3-compatible storage.
//   - "dev": writes messages to a local directory.
//
// The registry is immutable after construction and safe for concurrent use.
//
// # Error Handling
//
// Message validation failures wrap ErrInvalidParams, bad credentials wrap
// ErrInvalidConfig, delivery failures wrap ErrFailedToSendEmail and an
// unregistered provider id yields ErrUnknownProvider.
package email
