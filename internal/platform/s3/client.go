package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"moments-backend/internal/common/config"
	"moments-backend/internal/common/logger"
)

// Overridable in tests.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client stores media objects in an S3-compatible bucket.
type Client struct {
	objects        objectAPI
	presign        *s3.PresignClient
	bucket         string
	publicBaseURL  string
	presignExpires time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	st := cfg.Storage

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(st.Region),
	}
	if st.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
		}
		o.UsePathStyle = st.UsePathStyle
	})

	logger.Info().
		Str("endpoint", st.Endpoint).
		Str("bucket", st.Bucket).
		Msg("S3 storage client initialized")

	return &Client{
		objects:        client,
		presign:        s3.NewPresignClient(client),
		bucket:         st.Bucket,
		publicBaseURL:  strings.TrimRight(st.PublicBaseURL, "/"),
		presignExpires: st.PresignExpires,
	}, nil
}

func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key, or a presigned GET when the bucket
// has no public base URL configured.
func (c *Client) URL(ctx context.Context, key string) (string, error) {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key, nil
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.presignExpires))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}
