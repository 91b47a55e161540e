package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const durationMetadataKey = "clip-duration-seconds"

// VoiceClipStore holds voice note audio outside the journal database. The
// entry row only ever carries the opaque ref returned by Save.
type VoiceClipStore interface {
	// Save stores a clip and returns its ref plus the duration in seconds
	// measured from the blob itself.
	Save(ctx context.Context, dayKey string, clip io.Reader) (string, float64, error)

	// Delete releases a stored clip. Deleting an unknown ref succeeds.
	Delete(ctx context.Context, ref string) error

	// DurationOf re-reads the duration recorded against the blob.
	DurationOf(ctx context.Context, ref string) (float64, error)

	// ClipURL returns a short-lived playback URL for the clip.
	ClipURL(ctx context.Context, ref string) (string, error)
}

// S3ClipStore implements VoiceClipStore on any S3-compatible backend
// (AWS S3, MinIO, Cloudflare R2, DigitalOcean Spaces, etc.).
type S3ClipStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// S3Config holds configuration for the clip store
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string // Optional: for S3-compatible services
	PresignExpiry time.Duration
}

// NewS3ClipStore creates a clip store against the configured bucket,
// creating the bucket when it does not exist yet.
func NewS3ClipStore(cfg S3Config) (*S3ClipStore, error) {
	ctx := context.Background()

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	store := &S3ClipStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	slog.Info("voice clip store ready", "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return store, nil
}

func (s *S3ClipStore) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created clip bucket", "bucket", s.bucket)
	return nil
}

// Save uploads the clip under a fresh key and records the probed duration
// as object metadata, so the duration is always derived from the blob
// rather than taken from the caller. A fresh key per save means an
// overwritten voice note orphans its old blob for explicit deletion
// instead of silently replacing it.
func (s *S3ClipStore) Save(ctx context.Context, dayKey string, clip io.Reader) (string, float64, error) {
	data, err := io.ReadAll(clip)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read clip: %w", err)
	}
	if len(data) == 0 {
		return "", 0, fmt.Errorf("empty clip")
	}

	duration := wavDuration(data)
	ref := fmt.Sprintf("voice/%s/%s.wav", dayKey, uuid.New().String())

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
		Body:   bytes.NewReader(data),
		Metadata: map[string]string{
			durationMetadataKey: strconv.FormatFloat(duration, 'f', 3, 64),
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload clip: %w", err)
	}

	return ref, duration, nil
}

func (s *S3ClipStore) Delete(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// S3 DeleteObject succeeds for missing keys, which gives the
	// idempotency the entry lifecycle relies on.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}

	return nil
}

func (s *S3ClipStore) DurationOf(ctx context.Context, ref string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to stat clip: %w", err)
	}

	raw, ok := head.Metadata[durationMetadataKey]
	if !ok {
		return 0, nil
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, nil
	}
	return duration, nil
}

func (s *S3ClipStore) ClipURL(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	presigned, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign clip URL: %w", err)
	}

	return presigned.URL, nil
}
