package blobvault

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Provider is the common create/read/delete contract over one storage target.
//
// Implementations are long-lived, hold no mutable per-call state, and are
// safe for concurrent use.
type Provider interface {
	// CreateBlob stores the bytes read from r and returns a freshly generated
	// blob URI rooted at the provider's base URI. ext is an optional filename
	// extension; a bare extension is dot-prefixed ("txt" becomes ".txt").
	// The reader is never closed; the caller retains ownership.
	CreateBlob(ctx context.Context, r io.Reader, ext string) (*url.URL, error)

	// ReadBlob opens the blob at uri for reading. The caller owns the
	// returned stream and must close it. A missing blob is ErrNotFound.
	ReadBlob(ctx context.Context, uri *url.URL) (io.ReadCloser, error)

	// DeleteBlob removes the blob at uri. It reports true if a blob existed
	// and was removed; deleting a nonexistent blob is false, not an error.
	DeleteBlob(ctx context.Context, uri *url.URL) (bool, error)

	// BaseURI returns a copy of the provider's slash-terminated base URI.
	BaseURI() *url.URL
}

// Create is a synchronous convenience wrapper around p.CreateBlob.
//
// Go needs no special execution-context scoping here: blocking on the
// context-aware call cannot deadlock a caller the way thread-affine
// continuation marshaling can in other runtimes.
func Create(p Provider, r io.Reader, ext string) (*url.URL, error) {
	return p.CreateBlob(context.Background(), r, ext)
}

// Read is a synchronous convenience wrapper around p.ReadBlob.
func Read(p Provider, uri *url.URL) (io.ReadCloser, error) {
	return p.ReadBlob(context.Background(), uri)
}

// Delete is a synchronous convenience wrapper around p.DeleteBlob.
func Delete(p Provider, uri *url.URL) (bool, error) {
	return p.DeleteBlob(context.Background(), uri)
}

// normalizeExt dot-prefixes a bare extension. Empty stays empty.
func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
