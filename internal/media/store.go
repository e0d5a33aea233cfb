// Package media stores binary assets (chat attachments, generated audio
// guides, point photos) in an S3-compatible object store. It is written
// against Cloudflare R2 but works with any S3 endpoint.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store is the seam callers depend on: upload bytes, get back a public URL.
type Store interface {
	Upload(ctx context.Context, contentType string, data []byte) (string, error)
}

// extensions maps accepted MIME types to object key extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"video/mp4":  ".mp4",
}

// S3Store uploads objects to a bucket over the S3 API with static
// credentials and path-style addressing (required by R2).
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	timeNow   func() time.Time
}

// Config holds the connection settings for the object store.
type Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	// PublicURL is the base URL objects are served from (CDN or bucket
	// endpoint), joined with the object key.
	PublicURL string
}

// NewS3Store constructs an S3Store. All config fields are required.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media: bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("media: credentials are required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("media: endpoint is required")
	}
	if cfg.PublicURL == "" {
		return nil, errors.New("media: public URL is required")
	}

	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		timeNow:   time.Now,
	}, nil
}

// Upload writes the object under a generated key and returns its public URL.
// Unknown content types are rejected before any network call.
func (s *S3Store) Upload(ctx context.Context, contentType string, data []byte) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("media.S3Store.Upload: unsupported content type %q", contentType)
	}
	if len(data) == 0 {
		return "", errors.New("media.S3Store.Upload: empty object")
	}

	key := fmt.Sprintf("media/%s/%s%s", s.timeNow().UTC().Format("2006/01/02"), uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media.S3Store.Upload: %w", err)
	}

	return s.publicURL + "/" + key, nil
}
