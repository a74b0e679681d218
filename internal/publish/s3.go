package publish

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/services"
)

// S3Client abstracts the S3 API operations used by S3. The *s3.Client type
// satisfies it.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// NewS3Client builds an S3 client from static publish credentials. A custom
// endpoint selects an S3-compatible store (MinIO, R2, ...).
func NewS3Client(cfg config.Publish) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
				Source:          "redub config",
			}, nil
		}),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// S3 uploads files to a bucket.
type S3 struct {
	client S3Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3 returns an S3 publisher. Prefix is prepended to object keys; pass ""
// for none.
func NewS3(client S3Client, bucket, prefix string, logger *slog.Logger) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix, logger: logging.NewComponentLogger(logger, "publish")}
}

// Name identifies the publisher.
func (s *S3) Name() string { return "s3" }

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Publish uploads each file and returns s3:// URIs.
func (s *S3) Publish(ctx context.Context, files []string) ([]string, error) {
	logger := logging.WithContext(ctx, s.logger)
	destinations := make([]string, 0, len(files))
	for _, file := range files {
		key := s.key(filepath.Base(file))
		uri := "s3://" + s.bucket + "/" + key
		if err := s.upload(ctx, file, key, logger); err != nil {
			return destinations, err
		}
		destinations = append(destinations, uri)
	}
	return destinations, nil
}

func (s *S3) upload(ctx context.Context, file, key string, logger *slog.Logger) error {
	info, err := os.Stat(file)
	if err != nil {
		return services.Wrap(services.ErrValidation, "publish", "s3", filepath.Base(file), err)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		if aws.ToInt64(head.ContentLength) == info.Size() {
			logger.Info("artifact already published",
				logging.String("key", key),
				logging.String(logging.FieldDecisionType, "publish_skip"),
			)
			return nil
		}
	case !isNotFound(err):
		return services.Wrap(services.ErrTransient, "publish", "s3 head", key, err)
	}

	f, err := os.Open(file)
	if err != nil {
		return services.Wrap(services.ErrValidation, "publish", "s3", filepath.Base(file), err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if contentType := mime.TypeByExtension(filepath.Ext(file)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "s3 put", key, err)
	}
	logger.Info("artifact published",
		logging.String("bucket", s.bucket),
		logging.String("key", key),
		logging.Int64("bytes", info.Size()),
	)
	return nil
}

// isNotFound reports whether err indicates the object does not exist.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
