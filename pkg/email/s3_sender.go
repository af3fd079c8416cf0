package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

// S3PutAPI is the subset of *s3.Client used by the mailbox sender.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Sender struct {
	client S3PutAPI
	bucket string
	prefix string
	from   string
	now    func() time.Time
}

// NewS3Sender builds a mailbox sender that stores messages in creds.Bucket.
// Static keys are used when creds.APIKey and creds.SecretKey are set, the
// default AWS credential chain otherwise.
func NewS3Sender(ctx context.Context, creds integration.Credentials, from string) (Sender, error) {
	if creds.Bucket == "" || creds.Region == "" {
		return nil, fmt.Errorf("%w: s3 bucket and region are required", ErrInvalidConfig)
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(creds.Region),
	}
	if creds.APIKey != "" && creds.SecretKey != "" {
		awsOptions = append(awsOptions,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				creds.APIKey,
				creds.SecretKey,
				"",
			)),
		)
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrInvalidConfig, err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SenderWithClient(client, creds.Bucket, "", from)
}

// NewS3SenderWithClient builds a mailbox sender around an existing client.
// Objects are written under prefix, which may be empty.
func NewS3SenderWithClient(client S3PutAPI, bucket, prefix, from string) (Sender, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", ErrInvalidConfig)
	}
	if !IsValidAddress(from) {
		return nil, fmt.Errorf("%w: sender must be a valid email address", ErrInvalidConfig)
	}
	return &s3Sender{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		from:   from,
		now:    time.Now,
	}, nil
}

type mailboxMetadata struct {
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Tag       string   `json:"tag,omitempty"`
}

// Send implements Sender by writing <timestamp>_<identifier>.html and .json.
func (s *s3Sender) Send(ctx context.Context, msg Message) error {
	msg.From = s.from
	if err := msg.Validate(); err != nil {
		return err
	}

	now := s.now()
	base := path.Join(s.prefix, baseFilename(now, msg))

	meta, err := json.Marshal(mailboxMetadata{
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	if err := s.put(ctx, base+".html", "text/html; charset=utf-8", msg.HTML); err != nil {
		return err
	}
	return s.put(ctx, base+".json", "application/json", string(meta))
}

func (s *s3Sender) put(ctx context.Context, key, contentType, body string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("s3 put %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()))
	}
	return errors.Join(ErrFailedToSendEmail, fmt.Errorf("s3 put: %w", err))
}
