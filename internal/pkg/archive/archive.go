// Package archive keeps a copy of every accepted raw webhook body in object
// storage, keyed by month and gateway transaction id.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/utnautiub/nuoi-buituantu/internal/pkg/config"
)

const keyPrefix = "sepay"

// Archiver stores raw payloads.
type Archiver interface {
	Put(ctx context.Context, externalID string, occurredAt time.Time, body []byte) error
}

// Noop discards payloads; used when the archive is disabled.
type Noop struct{}

func (Noop) Put(context.Context, string, time.Time, []byte) error { return nil }

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 writes payloads to an S3-compatible bucket.
type S3 struct {
	client objectPutter
	bucket string
}

// New returns the archiver selected by cfg.
func New(ctx context.Context, cfg config.Archive) (Archiver, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewS3(ctx, cfg)
}

func NewS3(ctx context.Context, cfg config.Archive) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle || cfg.Endpoint != ""
	})

	log.Infof("[Archive] Raw webhook archive enabled for bucket: %s", cfg.Bucket)
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// ObjectKey is sepay/YYYY/MM/<externalID>.json, with the month taken in UTC.
func ObjectKey(externalID string, occurredAt time.Time) string {
	safe := strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(externalID)
	return fmt.Sprintf("%s/%s/%s.json", keyPrefix, occurredAt.UTC().Format("2006/01"), safe)
}

func (a *S3) Put(ctx context.Context, externalID string, occurredAt time.Time, body []byte) error {
	key := ObjectKey(externalID, occurredAt)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}
