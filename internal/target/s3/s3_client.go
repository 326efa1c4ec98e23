package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"
)

// Client implements ObjectStore using the minio-go SDK for real S3
// connectivity.
type Client struct {
	client *minio.Client
	cfg    *Config
}

// NewClient creates a real S3 client from config.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.EndpointURL == "" {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("endpoint is required"))
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, wrapError(CodePermissionDenied, false, fmt.Errorf("credentials are required"))
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("failed to create s3 client: %w", err))
	}
	return &Client{client: client, cfg: cfg}, nil
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, classifyClientError(err)
	}
	return exists, nil
}

func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error {
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return wrapError(CodeUploadFailed, false, fmt.Errorf("object key is required"))
	}

	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		StorageClass: opts.StorageClass,
		UserMetadata: opts.Metadata,
	}
	if strings.EqualFold(opts.Encryption, "AES256") {
		putOpts.ServerSideEncryption = encrypt.NewSSE()
	}

	reader := bytes.NewReader(data)
	_, err := c.client.PutObject(ctx, bucket, key, reader, int64(len(data)), putOpts)
	if err != nil {
		return classifyClientError(err)
	}
	return nil
}

func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyClientError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyClientError(err)
	}
	return data, nil
}

func (c *Client) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classifyClientError(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// classifyClientError converts minio-go errors to our structured Error type.
func classifyClientError(err error) *Error {
	if err == nil {
		return nil
	}

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket":
			return wrapError(CodeBucketNotFound, false, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodePermissionDenied, false, err)
		}
	}

	lowered := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowered, "no such bucket"), strings.Contains(lowered, "does not exist"):
		return wrapError(CodeBucketNotFound, false, err)
	case strings.Contains(lowered, "access denied"), strings.Contains(lowered, "permission"):
		return wrapError(CodePermissionDenied, false, err)
	case strings.Contains(lowered, "timeout"), strings.Contains(lowered, "deadline"):
		return wrapError(CodeTimeout, true, err)
	case strings.Contains(lowered, "connection refused"), strings.Contains(lowered, "no such host"):
		return wrapError(CodeEndpointUnreachable, true, err)
	default:
		return wrapError(CodeUploadFailed, true, err)
	}
}
