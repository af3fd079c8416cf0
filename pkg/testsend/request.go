package testsend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/render"
)

// PayloadSenderKey is the payload field that may carry a sender address.
const PayloadSenderKey = "$sender_email"

// Request describes one test send.
type Request struct {
	TenantID       string         `json:"tenantId"`
	EnvironmentID  string         `json:"environmentId"`
	ActorID        string         `json:"actorId,omitempty"`
	To             Recipients     `json:"to"`
	Template       render.Ref     `json:"template"`
	Payload        map[string]any `json:"payload,omitempty"`
	SenderOverride string         `json:"senderOverride,omitempty"`
}

// Recipients is a list of addresses. In JSON it may be a single string or an
// array of strings.
type Recipients []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("recipients must be a string or an array of strings: %w", err)
	}
	*r = Recipients(list)
	return nil
}

// Normalize trims every address and drops the empty ones.
func (r Recipients) Normalize() []string {
	out := make([]string, 0, len(r))
	for _, addr := range r {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// validate returns the normalized recipient list.
func (req Request) validate() ([]string, error) {
	switch {
	case strings.TrimSpace(req.TenantID) == "":
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidRequest)
	case strings.TrimSpace(req.EnvironmentID) == "":
		return nil, fmt.Errorf("%w: environment id is required", ErrInvalidRequest)
	case req.Template.ID == "" && req.Template.Content == "":
		return nil, fmt.Errorf("%w: template id or content is required", ErrInvalidRequest)
	}

	to := req.To.Normalize()
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidRequest)
	}
	for _, addr := range to {
		if !email.IsValidAddress(addr) {
			return nil, fmt.Errorf("%w: invalid recipient %q", ErrInvalidRequest, addr)
		}
	}
	if req.SenderOverride != "" && !email.IsValidAddress(strings.TrimSpace(req.SenderOverride)) {
		return nil, fmt.Errorf("%w: invalid sender override %q", ErrInvalidRequest, req.SenderOverride)
	}
	return to, nil
}

// ResolveSender picks the From address: override, then the payload's
// "$sender_email", then the credential default, then fallback. Blank values
// are skipped.
func ResolveSender(override string, payload map[string]any, credentialDefault, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if v, ok := payload[PayloadSenderKey].(string); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(credentialDefault); v != "" {
		return v
	}
	return fallback
}
