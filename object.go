package blobvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/hupe1980/blobvault/blobname"
	"github.com/hupe1980/blobvault/uriutil"
)

// ObjectClient is the narrow contract a remote object store must satisfy to
// back an ObjectProvider. Names are slash-separated relative paths chosen by
// the provider; the client maps them onto its own keys and carries its own
// credentials and retry/backoff policy.
type ObjectClient interface {
	// Put stores the bytes read from r under name, only if name is absent.
	// An occupied name is ErrExists.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the object at name for reading. Absence is ErrNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Del removes the object at name, reporting whether it existed.
	Del(ctx context.Context, name string) (bool, error)
}

// ObjectConfig configures an ObjectProvider.
type ObjectConfig struct {
	// ContainerName is the bucket/container objects live in. Required.
	ContainerName string

	// BaseURI is the absolute logical namespace root blob URIs are minted
	// under. Empty means DefaultBaseURI.
	BaseURI string
}

// ObjectOption configures constructor behavior beyond ObjectConfig.
type ObjectOption func(*ObjectProvider)

// WithObjectLogger sets the provider's logger. Default is NoopLogger.
func WithObjectLogger(l *Logger) ObjectOption {
	return func(p *ObjectProvider) {
		if l == nil {
			l = NoopLogger()
		}
		p.logger = l
	}
}

// ObjectProvider implements Provider against a remote object store. The
// store's native create-if-absent, read-nonexistent and delete-if-exists
// semantics line up with the contract directly, so no temp-file dance is
// needed here.
type ObjectProvider struct {
	client    ObjectClient
	container string
	base      *url.URL // logical base, slash-terminated
	objBase   *url.URL // physical object base, slash-terminated
	logger    *Logger
}

var _ Provider = (*ObjectProvider)(nil)

// NewObjectProvider validates cfg and returns a provider ready for
// concurrent use.
func NewObjectProvider(client ObjectClient, cfg ObjectConfig, opts ...ObjectOption) (*ObjectProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: object client must not be nil", ErrInvalidArgument)
	}
	if cfg.ContainerName == "" {
		return nil, fmt.Errorf("%w: container name must not be empty", ErrInvalidArgument)
	}
	base, err := parseBaseURI(cfg.BaseURI)
	if err != nil {
		return nil, err
	}

	p := &ObjectProvider{
		client:    client,
		container: cfg.ContainerName,
		base:      base,
		objBase:   &url.URL{Scheme: "object", Host: cfg.ContainerName, Path: "/"},
		logger:    NoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithContainer(cfg.ContainerName)
	return p, nil
}

// BaseURI returns a copy of the provider's base URI.
func (p *ObjectProvider) BaseURI() *url.URL {
	base := *p.base
	return &base
}

// CreateBlob implements Provider.
func (p *ObjectProvider) CreateBlob(ctx context.Context, r io.Reader, ext string) (*url.URL, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader must not be nil", ErrInvalidArgument)
	}

	name := blobname.Next('/', normalizeExt(ext))
	if err := p.client.Put(ctx, name, r); err != nil {
		if errors.Is(err, ErrExists) {
			err = fmt.Errorf("%w: %s", ErrCollision, name)
		} else {
			err = fmt.Errorf("put object %q: %w", name, err)
		}
		p.logger.LogCreate(ctx, nil, err)
		return nil, err
	}

	uri := *p.base
	uri.Path += name
	p.logger.LogCreate(ctx, &uri, nil)
	return &uri, nil
}

// ReadBlob implements Provider.
func (p *ObjectProvider) ReadBlob(ctx context.Context, uri *url.URL) (io.ReadCloser, error) {
	name, err := p.objectName(uri)
	if err != nil {
		return nil, err
	}

	rc, err := p.client.Get(ctx, name)
	if err != nil {
		err = fmt.Errorf("get object %q: %w", name, err)
		p.logger.LogRead(ctx, uri, err)
		return nil, err
	}
	p.logger.LogRead(ctx, uri, nil)
	return rc, nil
}

// DeleteBlob implements Provider.
func (p *ObjectProvider) DeleteBlob(ctx context.Context, uri *url.URL) (bool, error) {
	name, err := p.objectName(uri)
	if err != nil {
		return false, err
	}

	existed, err := p.client.Del(ctx, name)
	if err != nil {
		err = fmt.Errorf("delete object %q: %w", name, err)
		p.logger.LogDelete(ctx, uri, false, err)
		return false, err
	}
	p.logger.LogDelete(ctx, uri, existed, nil)
	return existed, nil
}

// objectName validates that uri belongs to this provider and translates it
// to the store-relative object name. Names with "." or ".." segments never
// come out of the generator and would collapse out of the key prefix when a
// client joins them, so they are rejected here.
func (p *ObjectProvider) objectName(uri *url.URL) (string, error) {
	phys, err := uriutil.ChangeBase(uri, p.base, p.objBase)
	if err != nil {
		return "", err
	}
	name := strings.TrimPrefix(phys.Path, "/")
	if name == "" || path.Clean("/"+name) != "/"+name {
		return "", fmt.Errorf("%w: uri %q escapes the container namespace", ErrInvalidArgument, uri)
	}
	return name, nil
}
