package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/omnimedia/server/internal/port/outbound"
)

const defaultKeyPrefix = "omni-media"

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Config holds S3 storage configuration.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// MediaStorage stores generated media in an S3-compatible bucket and hands
// out presigned GET URLs.
type MediaStorage struct {
	client    objectPutter
	presigner objectPresigner
	bucket    string
	prefix    string
	now       func() time.Time
	logger    *zap.Logger
}

// NewClient builds an S3 client from static credentials. An empty endpoint
// uses the AWS default resolver.
func NewClient(ctx context.Context, cfg *Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts = append(opts, awsconfig.WithRegion(region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewMediaStorage creates the adapter around an S3 client.
func NewMediaStorage(client *s3.Client, cfg *Config, logger *zap.Logger) *MediaStorage {
	return newMediaStorage(client, s3.NewPresignClient(client), cfg, logger)
}

func newMediaStorage(client objectPutter, presigner objectPresigner, cfg *Config, logger *zap.Logger) *MediaStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &MediaStorage{
		client:    client,
		presigner: presigner,
		bucket:    cfg.Bucket,
		prefix:    prefix,
		now:       time.Now,
		logger:    logger.Named("s3-storage"),
	}
}

// Name returns the backend name.
func (m *MediaStorage) Name() string {
	return "s3"
}

// Put uploads data and returns a presigned URL, or an s3:// URL when
// presigning fails.
func (m *MediaStorage) Put(ctx context.Context, requestID, mediaType string, index int, data []byte, ext string, ttl time.Duration) (string, error) {
	key := m.objectKey(requestID, mediaType, index, ext)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	req, err := m.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		m.logger.Warn("presign failed, returning object url", zap.String("key", key), zap.Error(err))
		return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
	}
	return req.URL, nil
}

func (m *MediaStorage) objectKey(requestID, mediaType string, index int, ext string) string {
	return path.Join(
		m.prefix,
		m.now().UTC().Format("2006/01/02"),
		safeSegment(requestID),
		fmt.Sprintf("%s_%d.%s", safeSegment(mediaType), index, safeSegment(ext)),
	)
}

func safeSegment(s string) string {
	s = unsafeSegment.ReplaceAllString(s, "_")
	if s == "" {
		return "_"
	}
	return s
}

func contentType(ext string) string {
	switch strings.ToLower(ext) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Compile-time check
var _ outbound.MediaStoragePort = (*MediaStorage)(nil)
