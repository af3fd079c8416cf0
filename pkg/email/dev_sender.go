package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

// DevSender writes messages to a local directory instead of sending them.
// Each message becomes an HTML file and a JSON metadata file.
type DevSender struct {
	dir  string
	from string
}

// NewDevSender creates a development sender. The directory is created on
// first send.
func NewDevSender(dir, from string) *DevSender {
	return &DevSender{dir: dir, from: from}
}

// DevFactory returns a Factory producing DevSenders writing to dir.
// creds.Endpoint, when set, overrides dir.
func DevFactory(dir string) Factory {
	return func(_ context.Context, creds integration.Credentials, from string) (Sender, error) {
		target := dir
		if creds.Endpoint != "" {
			target = creds.Endpoint
		}
		return NewDevSender(target, from), nil
	}
}

type devMetadata struct {
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	SendTo    []string `json:"send_to"`
	Subject   string   `json:"subject"`
	Tag       string   `json:"tag,omitempty"`
}

// Send implements Sender.
func (d *DevSender) Send(ctx context.Context, msg Message) error {
	msg.From = d.from
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	now := time.Now()
	base := baseFilename(now, msg)

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(msg.HTML), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrFailedToSendEmail, err)
	}

	jsonData, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		SendTo:    msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}

	jsonPath := filepath.Join(d.dir, base+".json")
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}

	return nil
}

// sanitizeRegex matches characters that are not alphanumeric, dash, underscore, or dot
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// baseFilename names stored messages: <timestamp>_<tag or subject>.
func baseFilename(now time.Time, msg Message) string {
	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	return fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405.000"), sanitizeFilename(identifier))
}

func sanitizeFilename(s string) string {
	// Chains keep internal state, so each call builds its own.
	foldMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
