package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Source opens a named import file. The returned reader yields the raw
// (still compressed) bytes.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileSource reads import files from the local file system.
type FileSource struct {
	logger zerolog.Logger
}

// NewFileSource creates a new local file source.
func NewFileSource(logger zerolog.Logger) *FileSource {
	return &FileSource{
		logger: logger.With().Str("component", "file-source").Logger(),
	}
}

// Open opens the file at path.
func (s *FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.logger.Debug().Str("file", path).Msg("opening import file")

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to open import file")
		return nil, fmt.Errorf("failed to open import file %s: %w", path, err)
	}
	return f, nil
}

// s3API is the subset of the S3 client used by S3Source.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads import files from an S3 bucket.
type S3Source struct {
	client s3API
	bucket string
	logger zerolog.Logger
}

// NewS3Source loads the default AWS configuration and creates an S3 source.
func NewS3Source(ctx context.Context, bucket, region string, logger zerolog.Logger) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 import source initialised")

	return newS3Source(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newS3Source(client s3API, bucket string, logger zerolog.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-source").Logger(),
	}
}

// Open fetches the object at key.
func (s *S3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	return out.Body, nil
}

// FallbackSource tries S3 first and falls back to the local file system.
type FallbackSource struct {
	remote Source
	local  Source
	prefix string
	logger zerolog.Logger
}

// NewFallbackSource creates a source that prefers remote. A nil remote means
// local only. The prefix is prepended to names for remote lookups.
func NewFallbackSource(remote, local Source, prefix string, logger zerolog.Logger) *FallbackSource {
	return &FallbackSource{
		remote: remote,
		local:  local,
		prefix: prefix,
		logger: logger.With().Str("component", "fallback-source").Logger(),
	}
}

// Open returns the remote object when it exists, otherwise the local file.
func (s *FallbackSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.remote != nil {
		key := s.prefix + name
		rc, err := s.remote.Open(ctx, key)
		if err == nil {
			s.logger.Info().Str("s3_key", key).Msg("reading import file from S3")
			return rc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to open from S3, falling back to local file system")
	}

	return s.local.Open(ctx, name)
}
