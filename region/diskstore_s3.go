package region

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gridcol/gridcol/columnkey"
)

// S3Config configures an S3DiskStore. Grounded on storage/persistence-s3.go's
// S3Factory, which supports S3-compatible endpoints (MinIO) via a custom
// endpoint and path-style URLs.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

// S3DiskStore stores blobs as individual S3 objects under cfg.Prefix.
type S3DiskStore struct {
	cfg S3Config

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

// NewS3DiskStore returns a lazily-connecting S3-backed DiskStore.
func NewS3DiskStore(cfg S3Config) *S3DiskStore {
	return &S3DiskStore{cfg: cfg}
}

func (s *S3DiskStore) ensureOpen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	var opts []func(*config.LoadOptions) error
	if s.cfg.Region != "" {
		opts = append(opts, config.WithRegion(s.cfg.Region))
	}
	if s.cfg.AccessKeyID != "" && s.cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("region: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(s.cfg.Endpoint) })
	}
	if s.cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	s.client = s3.NewFromConfig(awsCfg, s3Opts...)
	s.opened = true
	return nil
}

func (s *S3DiskStore) key(id columnkey.DiskID) string {
	prefix := strings.TrimSuffix(s.cfg.Prefix, "/")
	if prefix == "" {
		return id.String()
	}
	return prefix + "/" + id.String()
}

func (s *S3DiskStore) ReadBlob(id columnkey.DiskID) ([]byte, error) {
	ctx := context.Background()
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *S3DiskStore) WriteBlob(id columnkey.DiskID, data []byte) error {
	ctx := context.Background()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *S3DiskStore) DeleteBlob(id columnkey.DiskID) error {
	ctx := context.Background()
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
	})
	return err
}
