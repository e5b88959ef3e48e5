// Package minio adapts a MinIO (or S3-compatible) endpoint to the blobvault
// ObjectClient contract.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/blobvault"
)

// Client implements blobvault.ObjectClient for MinIO and S3-compatible
// storage.
//
// MinIO has no portable If-None-Match put across S3-compatible targets, so
// the create-if-absent precondition is a stat-then-put: good enough given
// that providers only put freshly generated names.
type Client struct {
	mc     *minio.Client
	bucket string
	prefix string
}

var _ blobvault.ObjectClient = (*Client)(nil)

// NewClient creates a new MinIO object client.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "blobs/").
func NewClient(mc *minio.Client, bucket, rootPrefix string) *Client {
	return &Client{
		mc:     mc,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (c *Client) key(name string) string {
	return path.Join(c.prefix, name)
}

// Put streams r into the bucket under name, only if the key is absent.
func (c *Client) Put(ctx context.Context, name string, r io.Reader) error {
	key := c.key(name)

	_, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: %s", blobvault.ErrExists, key)
	}
	if !isNoSuchKey(err) {
		return err
	}

	// -1 size streams the reader without buffering it in memory.
	_, err = c.mc.PutObject(ctx, c.bucket, key, r, -1, minio.PutObjectOptions{})
	return err
}

// Get opens the object at name for reading.
func (c *Client) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	key := c.key(name)

	// GetObject is lazy; stat first so absence surfaces here, not on the
	// first Read.
	_, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", key, blobvault.ErrNotFound)
		}
		return nil, err
	}

	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Del removes the object at name, reporting whether it existed.
// MinIO's RemoveObject succeeds on missing keys, hence the stat.
func (c *Client) Del(ctx context.Context, name string) (bool, error) {
	key := c.key(name)

	_, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}

	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
