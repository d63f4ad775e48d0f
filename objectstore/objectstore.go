// Package objectstore provides read-side access to S3-compatible object
// stores for catalog assets addressed by s3:// hrefs. It wraps
// aws-sdk-go-v2 with path-style addressing so it works against both AWS
// and custom S3-compatible endpoints.
package objectstore

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
	"github.com/aws/smithy-go/logging"
)

// Client wraps an aws-sdk-go-v2 S3 client for read-only asset access.
type Client struct {
	client *s3.Client
	region string
}

// Config holds connection parameters for an S3-compatible endpoint.
type Config struct {
	// Endpoint is the base URL of the S3 HTTP server. Leave empty to
	// use the default AWS endpoint for Region.
	Endpoint string

	// AccessKey is the S3 access key ID for authentication.
	AccessKey string

	// SecretKey is the S3 secret access key for authentication.
	SecretKey string

	// Region is the AWS region identifier. Defaults to "us-east-1" if empty.
	Region string
}

// ObjectInfo describes an object stored in an S3-compatible bucket.
type ObjectInfo struct {
	// Key is the object key (path within the bucket).
	Key string

	// Size is the object size in bytes.
	Size int64

	// LastModified is the timestamp when the object was last modified.
	LastModified time.Time

	// ETag is the entity tag (typically an MD5 hash of the object content).
	ETag string

	// ContentType is the MIME type of the object content.
	ContentType string
}

// New creates a Client using static credentials and path-style
// addressing (required for custom S3-compatible servers).
func New(cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	staticCreds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	opts := s3.Options{
		Region:       region,
		Credentials:  staticCreds,
		UsePathStyle: true,
		Logger:       logging.Nop{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Client{client: s3.New(opts), region: region}, nil
}

// NewFromEnv creates a Client using the default AWS credential chain
// (environment, shared config, instance metadata).
func NewFromEnv(ctx context.Context) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("objectstore: loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.Logger = logging.Nop{}
	})
	return &Client{client: client, region: awsCfg.Region}, nil
}

// Exists checks whether an object exists at the given s3:// URI.
func (c *Client) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return false, err
	}
	_, err = c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// HeadObject returns a 404-style error if the object does not
		// exist. The SDK wraps HTTP status codes, so any error is
		// treated as "not found".
		return false, nil
	}
	return true, nil
}

// Head retrieves metadata about the object at the given s3:// URI
// without downloading its content.
func (c *Client) Head(ctx context.Context, uri string) (*ObjectInfo, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("head object %s/%s: %w", bucket, key, err)
	}

	info := &ObjectInfo{
		Key:  key,
		Size: aws.ToInt64(resp.ContentLength),
		ETag: aws.ToString(resp.ETag),
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	return info, nil
}

// Get retrieves the object at the given s3:// URI. The caller is
// responsible for closing the returned [io.ReadCloser].
func (c *Client) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// GetRange reads length bytes starting at offset from the object at the
// given s3:// URI.
func (c *Client) GetRange(ctx context.Context, uri string, offset, length int64) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(rng),
	})
	if err != nil {
		return nil, fmt.Errorf("get object range %s/%s %s: %w", bucket, key, rng, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ParseURI splits an s3:// URI into bucket and key components.
//
// Accepted formats:
//   - s3://bucket/key
//   - s3://bucket/path/to/key
//
// Returns an error if the URI is missing a scheme, bucket, or key.
func ParseURI(uri string) (bucket, key string, err error) {
	raw := uri

	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("objectstore: invalid URI scheme (expected s3://): %s", raw)
	}
	uri = strings.TrimPrefix(uri, "s3://")

	// Remove leading slashes that may result from triple-slash variants.
	uri = strings.TrimLeft(uri, "/")

	if uri == "" {
		return "", "", fmt.Errorf("objectstore: missing bucket in URI: %s", raw)
	}

	parts := strings.SplitN(uri, "/", 2)
	bucket = parts[0]
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("objectstore: missing object key in URI: %s", raw)
	}
	key = parts[1]
	return bucket, key, nil
}
