package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

const seedObjectName = "factory.seed"

// S3SeedBackend stores the sealed seed in Amazon S3 or a compatible object
// store. Seed objects are always written private; the blob is sealed, but
// there is no reason to expose it.
type S3SeedBackend struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3SeedBackend creates an S3 backend. Without credentials the AWS SDK
// falls back to the environment's credential chain.
func NewS3SeedBackend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3SeedBackend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3SeedBackend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// FetchSeed retrieves the sealed seed object.
func (b *S3SeedBackend) FetchSeed(ctx context.Context) ([]byte, error) {
	start := time.Now()
	key := b.objectKey()

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return nil, interfaces.ErrSeedNotFound
		}
		b.log.Error("Failed to get seed object from S3",
			slog.String("bucket", b.bucketName),
			slog.String("key", key),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed object body: %w", err)
	}

	b.log.Debug("Fetched sealed seed from S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// StoreSeed uploads the sealed seed object.
func (b *S3SeedBackend) StoreSeed(ctx context.Context, sealed []byte) error {
	key := b.objectKey()

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(sealed),
		ACL:    aws.String("private"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored sealed seed in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key))
	return nil
}

// Available checks the bucket with a head request.
func (b *S3SeedBackend) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 seed backend unavailable",
			slog.String("bucket", b.bucketName), "err", err)
		return false
	}
	return true
}

// LocationURI returns the URI that identifies this backend.
func (b *S3SeedBackend) LocationURI() string {
	return b.locationURI
}

func (b *S3SeedBackend) objectKey() string {
	if b.prefix == "" {
		return seedObjectName
	}
	return path.Join(b.prefix, seedObjectName)
}
