// Package s3 adapts AWS S3 to the blobvault ObjectClient contract.
//
// Unlike the minio adapter, creation uses a real conditional write
// (If-None-Match: *), so the create-if-absent semantics hold even across
// concurrent writers.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/blobvault"
)

// API is the subset of the S3 client the adapter needs. *s3.Client
// satisfies it.
type API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client implements blobvault.ObjectClient for AWS S3.
type Client struct {
	api      API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ blobvault.ObjectClient = (*Client)(nil)

// NewClient creates a new S3 object client.
// rootPrefix is prepended to all keys (e.g. "blobs/").
func NewClient(api API, bucket, rootPrefix string) *Client {
	return &Client{
		api:      api,
		uploader: manager.NewUploader(api),
		bucket:   bucket,
		prefix:   rootPrefix,
	}
}

func (c *Client) key(name string) string {
	return path.Join(c.prefix, name)
}

// Put streams r into the bucket under name. The conditional write only
// succeeds if the key is absent; an occupied key is ErrExists.
func (c *Client) Put(ctx context.Context, name string, r io.Reader) error {
	key := c.key(name)

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        r,
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.ErrorCode()
			if code == "PreconditionFailed" || code == "ConditionalRequestConflict" {
				return fmt.Errorf("%w: %s", blobvault.ErrExists, key)
			}
		}
		return err
	}
	return nil
}

// Get opens the object at name for reading.
func (c *Client) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	key := c.key(name)

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", key, blobvault.ErrNotFound)
		}
		return nil, err
	}
	return out.Body, nil
}

// Del removes the object at name, reporting whether it existed.
// S3's DeleteObject succeeds on missing keys, hence the head request.
func (c *Client) Del(ctx context.Context, name string) (bool, error) {
	key := c.key(name)

	if _, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, err
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
