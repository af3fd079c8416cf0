package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/testsend"
)

type sendTestFlags struct {
	requestFile string
	tenantID    string
	envID       string
	actorID     string
	to          []string
	templateID  string
	subject     string
	content     string
	contentFile string
	layout      bool
	payload     string
	set         []string
	sender      string
	dryRun      bool
	timeout     time.Duration
}

func (c *cli) sendTestCmd() *cobra.Command {
	var f sendTestFlags

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send one test email through a tenant's active integration",
		Long: `Render a template with the given payload and send it through the
tenant's active email integration for the environment.

Payload keys prefixed with "subscriber.", "step." or "branding." feed the
matching template namespaces; everything else is available at the top level.

With --dry-run no database is used: the tenant and a dev integration are
created in memory and the message is written to DEV_MAIL_DIR.`,
		Example: `  notifykit send-test --tenant 6f1c... --env production --to qa@example.com \
    --template welcome --set subscriber.firstName=Ann
  notifykit send-test --request request.json
  notifykit send-test --dry-run --to me@example.com --subject "Hi" --content "<p>Hello</p>"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			var svc *testsend.Service
			if f.dryRun {
				svc, err = c.app.dryRunService(&req)
			} else {
				svc, err = c.app.liveService(ctx)
			}
			if err != nil {
				return err
			}

			if err := svc.Execute(ctx, req); err != nil {
				return fmt.Errorf("test send failed (%s): %w", testsend.KindOf(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", strings.Join(req.To.Normalize(), ", "))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.requestFile, "request", "", "JSON request file, - for stdin; flags override its fields")
	fl.StringVar(&f.tenantID, "tenant", "", "tenant id (UUID)")
	fl.StringVar(&f.envID, "env", "", "environment id")
	fl.StringVar(&f.actorID, "actor", "", "id of the user triggering the send")
	fl.StringSliceVar(&f.to, "to", nil, "recipient addresses")
	fl.StringVar(&f.templateID, "template", "", "stored template id")
	fl.StringVar(&f.subject, "subject", "", "inline subject template")
	fl.StringVar(&f.content, "content", "", "inline body template")
	fl.StringVar(&f.contentFile, "content-file", "", "file holding the inline body template")
	fl.BoolVar(&f.layout, "layout", false, "wrap the body in the branded layout")
	fl.StringVar(&f.payload, "payload", "", "payload as a JSON object")
	fl.StringArrayVar(&f.set, "set", nil, "payload entry key=value, repeatable")
	fl.StringVar(&f.sender, "sender", "", "sender address override")
	fl.BoolVar(&f.dryRun, "dry-run", false, "use in-memory stores and the dev provider")
	fl.DurationVar(&f.timeout, "timeout", 30*time.Second, "overall deadline, 0 disables it")

	return cmd
}

// request assembles the request from the optional file and the flags.
func (f *sendTestFlags) request(stdin io.Reader) (testsend.Request, error) {
	var req testsend.Request

	if f.requestFile != "" {
		var r io.Reader = stdin
		if f.requestFile != "-" {
			file, err := os.Open(f.requestFile)
			if err != nil {
				return req, fmt.Errorf("open request: %w", err)
			}
			defer file.Close()
			r = file
		}
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
	}

	setIf(&req.TenantID, f.tenantID)
	setIf(&req.EnvironmentID, f.envID)
	setIf(&req.ActorID, f.actorID)
	setIf(&req.Template.ID, f.templateID)
	setIf(&req.Template.Subject, f.subject)
	setIf(&req.Template.Content, f.content)
	setIf(&req.SenderOverride, f.sender)
	if len(f.to) > 0 {
		req.To = testsend.Recipients(f.to)
	}
	if f.layout {
		req.Template.Layout = true
	}

	if f.contentFile != "" {
		b, err := os.ReadFile(f.contentFile)
		if err != nil {
			return req, fmt.Errorf("read content: %w", err)
		}
		req.Template.Content = string(b)
	}

	if f.payload != "" {
		var p map[string]any
		if err := json.Unmarshal([]byte(f.payload), &p); err != nil {
			return req, fmt.Errorf("decode payload: %w", err)
		}
		if req.Payload == nil {
			req.Payload = p
		} else {
			for k, v := range p {
				req.Payload[k] = v
			}
		}
	}

	for _, kv := range f.set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return req, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		if req.Payload == nil {
			req.Payload = make(map[string]any)
		}
		req.Payload[k] = v
	}

	return req, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
