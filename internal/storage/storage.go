// Package storage decouples task image storage from the relational store.
// Only a storage key is ever persisted — never a durable URL — so reads stay
// permissioned: every read exchanges the key for a fresh, time-limited signed
// URL. The backend is Backblaze B2 through its S3-compatible endpoint.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"TASKPILOT_BACK-END/internal/config"
)

// Service is the storage contract the handlers depend on.
type Service interface {
	// Upload stores data under the caller-supplied key and returns the key.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// SignedURL returns a time-limited URL granting read access to key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Seams for testing the client without a live bucket.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const (
	uploadAttempts     = 3
	uploadBackoffBase  = 500 * time.Millisecond
	defaultContentType = "application/octet-stream"
)

// B2Client talks to a single bucket. The underlying S3 client is rebuilt per
// operation rather than cached, so rotated application keys take effect on
// the next call and no authorization state outlives a request.
type B2Client struct {
	cfg *config.StorageConfig
}

// NewB2Client creates a storage client for the configured bucket.
func NewB2Client(cfg *config.StorageConfig) *B2Client {
	return &B2Client{cfg: cfg}
}

// newClient exchanges the long-lived application credentials for an S3 client
// bound to the configured endpoint. Failure here (bad credentials, bad
// endpoint) is fatal to the calling operation and propagates to the handler.
func (c *B2Client) newClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.cfg.KeyID,
			c.cfg.AppKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("storage authorization failed: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.cfg.Endpoint)
	})

	return client, nil
}

// Upload stores data under key with up to three attempts and exponential
// backoff. Retrying is safe: the key is generated by the caller, so a repeat
// PUT is an idempotent overwrite of the same object.
func (c *B2Client) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	if contentType == "" {
		contentType = defaultContentType
	}

	backoff := retry.WithMaxRetries(uploadAttempts-1, retry.NewExponential(uploadBackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := putObject(client, ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload failed for %q: %w", key, err)
	}

	return key, nil
}

// SignedURL produces a presigned GET URL for key, valid for ttl. The URL is
// never persisted; callers must request a fresh one for every read. Two calls
// made at different times yield different URLs (the signature covers the
// signing timestamp).
func (c *B2Client) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	if ttl <= 0 {
		ttl = time.Hour
	}

	req, err := presignGetObject(s3.NewPresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("signing failed for %q: %w", key, err)
	}

	return req.URL, nil
}

// GenerateFileKey derives a collision-free storage key from an uploaded
// file's name: tasks/{slugged-base}-{uuid}.{ext}.
func GenerateFileKey(originalName string) string {
	ext := strings.TrimPrefix(path.Ext(originalName), ".")
	if ext == "" {
		ext = "bin"
	}
	base := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("tasks/%s-%s.%s", base, uuid.New(), ext)
}
