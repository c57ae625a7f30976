package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"jobfill/config"
)

// S3Service reads resume documents out of the job board's bucket and
// stores review screenshots in it.
type S3Service struct {
	s3Client *s3.S3
	bucket   string
	region   string
}

func NewS3Service(cfg config.S3Config) (*S3Service, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Region == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("AWS credentials not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc := &S3Service{
		s3Client: s3.New(sess),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
	}
	return svc, svc.validate()
}

// Download fetches an object. An empty bucket means the configured one.
func (s *S3Service) Download(ctx context.Context, bucket, key string, maxBytes int64) (*ResumeBlob, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return &ResumeBlob{
		Name:        fileNameFromKey(key),
		ContentType: aws.StringValue(out.ContentType),
		Data:        data,
	}, nil
}

// Upload puts data under key in the configured bucket and returns its URL.
func (s *S3Service) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.ObjectURL(key), nil
}

// ObjectURL is the virtual-hosted URL of key; ParseS3URL reverses it.
func (s *S3Service) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ParseS3URL splits s3://bucket/key, or a virtual-hosted https URL of the
// form https://bucket.s3.region.amazonaws.com/key.
func ParseS3URL(raw string) (bucket, key string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	switch {
	case u.Scheme == "s3":
		bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	case strings.Contains(u.Host, ".s3.") && strings.HasSuffix(u.Host, ".amazonaws.com"):
		bucket = u.Host[:strings.Index(u.Host, ".s3.")]
		key = strings.TrimPrefix(u.Path, "/")
	default:
		return "", "", false
	}
	return bucket, key, bucket != "" && key != ""
}

func fileNameFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// validate checks if the S3Service configuration is valid
func (s *S3Service) validate() error {
	if s.bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	if s.region == "" {
		return fmt.Errorf("region is required")
	}

	return nil
}
