package blobvault

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/hupe1980/blobvault/blobname"
	"github.com/hupe1980/blobvault/internal/fsys"
	"github.com/hupe1980/blobvault/uriutil"
)

const (
	// DefaultBufferSize is the stream-copy buffer size (1 MiB) used when a
	// configuration leaves a buffer size unset.
	DefaultBufferSize = 1 << 20

	// DefaultBaseURI is the logical namespace root used when a configuration
	// leaves BaseURI empty.
	DefaultBaseURI = "blob:///"

	// tmpExt distinguishes in-flight uploads from published blobs.
	tmpExt = ".upl"
)

// RetryPolicy bounds retrying of transient blob deletion failures.
//
// The defaults (3 retries, 10s apart) preserve behavior tuned for slow
// antivirus/indexer lock contention; workloads without that contention
// should configure something far tighter via WithRetryPolicy.
type RetryPolicy struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy is used when no WithRetryPolicy option is given.
var DefaultRetryPolicy = RetryPolicy{Retries: 3, Delay: 10 * time.Second}

// FSConfig configures an FSProvider. RootPath is required; everything else
// has working defaults. A config is consumed at construction and never
// consulted again.
type FSConfig struct {
	// RootPath is the directory all blobs live under. Created if absent.
	RootPath string

	// ReadBufferSize and WriteBufferSize are the stream buffer sizes in
	// bytes. Zero means DefaultBufferSize; negative is invalid.
	ReadBufferSize  int
	WriteBufferSize int

	// BaseURI is the absolute logical namespace root blob URIs are minted
	// under. Empty means DefaultBaseURI.
	BaseURI string
}

// FSOption configures constructor behavior beyond FSConfig.
type FSOption func(*FSProvider)

// WithLogger sets the provider's logger. Default is NoopLogger.
func WithLogger(l *Logger) FSOption {
	return func(p *FSProvider) {
		if l == nil {
			l = NoopLogger()
		}
		p.logger = l
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy for blob deletion.
func WithRetryPolicy(rp RetryPolicy) FSOption {
	return func(p *FSProvider) {
		p.retry = rp
	}
}

// WithClock sets the clock the delete retry loop waits on.
// Tests use this to avoid real sleeps.
func WithClock(c clock.Clock) FSOption {
	return func(p *FSProvider) {
		p.clk = c
	}
}

// withFS injects a filesystem facade; the fault-injection seam for tests.
func withFS(fs fsys.FS) FSOption {
	return func(p *FSProvider) {
		p.fs = fs
	}
}

// FSProvider implements Provider over a local directory tree.
//
// Creation is atomic: the stream is copied to a temporary sibling file and
// renamed onto the final path, so a reader can never observe a partially
// written blob. Deletion retries transient failures and reclaims directories
// left empty.
type FSProvider struct {
	rootDir  string   // absolute, no trailing separator
	base     *url.URL // logical base, slash-terminated
	fileBase *url.URL // physical file base, slash-terminated

	readBuf  int
	writeBuf int
	retry    RetryPolicy

	clk    clock.Clock
	fs     fsys.FS
	logger *Logger
}

var _ Provider = (*FSProvider)(nil)

// NewFSProvider validates cfg, creates the root directory if needed, and
// returns a provider ready for concurrent use.
func NewFSProvider(cfg FSConfig, opts ...FSOption) (*FSProvider, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("%w: root path must not be empty", ErrInvalidArgument)
	}
	readBuf, err := bufferSize(cfg.ReadBufferSize)
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	writeBuf, err := bufferSize(cfg.WriteBufferSize)
	if err != nil {
		return nil, fmt.Errorf("write buffer: %w", err)
	}
	base, err := parseBaseURI(cfg.BaseURI)
	if err != nil {
		return nil, err
	}

	p := &FSProvider{
		base:     base,
		readBuf:  readBuf,
		writeBuf: writeBuf,
		retry:    DefaultRetryPolicy,
		clk:      clock.WallClock,
		fs:       fsys.Default,
		logger:   NoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	root, err := filepath.Abs(cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	if err := p.fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	p.rootDir = root
	p.fileBase = &url.URL{Scheme: "file", Path: filepath.ToSlash(root) + "/"}
	p.logger = p.logger.WithRoot(root)
	return p, nil
}

// Root returns the resolved absolute root directory.
func (p *FSProvider) Root() string { return p.rootDir }

// BaseURI returns a copy of the provider's base URI.
func (p *FSProvider) BaseURI() *url.URL {
	base := *p.base
	return &base
}

// CreateBlob implements Provider.
func (p *FSProvider) CreateBlob(ctx context.Context, r io.Reader, ext string) (*url.URL, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader must not be nil", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := blobname.Next('/', normalizeExt(ext))
	target := filepath.Join(p.rootDir, filepath.FromSlash(name))
	tmp := target + tmpExt

	if err := p.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	defer p.discardTemp(tmp)

	if err := p.writeTemp(tmp, r); err != nil {
		p.logger.LogCreate(ctx, nil, err)
		return nil, err
	}
	if err := p.publish(tmp, target); err != nil {
		p.logger.LogCreate(ctx, nil, err)
		return nil, err
	}

	uri := *p.base
	uri.Path += name
	p.logger.LogCreate(ctx, &uri, nil)
	return &uri, nil
}

// writeTemp copies the stream into the temp file using the configured write
// buffer and syncs before returning. The input reader is left open.
func (p *FSProvider) writeTemp(tmp string, r io.Reader) error {
	f, err := p.fs.OpenWrite(tmp)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	buf := make([]byte, p.writeBuf)
	if _, err := io.CopyBuffer(f, r, buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("copy stream: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}

// publish renames the fully written temp file onto the final path. This is
// the atomicity boundary: readers never observe a partial blob.
func (p *FSProvider) publish(tmp, target string) error {
	// os.Rename replaces an existing target on POSIX, so the occupied-path
	// collision has to be detected up front.
	if _, err := p.fs.Stat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrCollision, target)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := p.fs.Rename(tmp, target); err != nil {
		return fmt.Errorf("publish blob: %w", err)
	}
	return nil
}

// discardTemp best-effort removes the temp file. Errors are discarded; the
// primary operation's outcome is already determined.
func (p *FSProvider) discardTemp(tmp string) {
	if err := p.fs.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Debug("temp file cleanup failed", "path", tmp, "error", err)
	}
}

// ReadBlob implements Provider.
func (p *FSProvider) ReadBlob(ctx context.Context, uri *url.URL) (io.ReadCloser, error) {
	path, err := p.localPath(uri)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := p.fs.OpenRead(path)
	if err != nil {
		// A missing file wraps os.ErrNotExist and so satisfies ErrNotFound.
		err = fmt.Errorf("open blob: %w", err)
		p.logger.LogRead(ctx, uri, err)
		return nil, err
	}
	p.logger.LogRead(ctx, uri, nil)
	return &blobReader{Reader: bufio.NewReaderSize(f, p.readBuf), file: f}, nil
}

// DeleteBlob implements Provider.
func (p *FSProvider) DeleteBlob(ctx context.Context, uri *url.URL) (bool, error) {
	path, err := p.localPath(uri)
	if err != nil {
		return false, err
	}

	if _, err := p.fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.LogDelete(ctx, uri, false, nil)
			return false, nil
		}
		return false, fmt.Errorf("stat blob: %w", err)
	}

	if err := p.removeWithRetry(ctx, path); err != nil {
		p.logger.LogDelete(ctx, uri, false, err)
		return false, err
	}
	p.pruneEmptyDirs(filepath.Dir(path))
	p.logger.LogDelete(ctx, uri, true, nil)
	return true, nil
}

// removeWithRetry deletes the blob file, retrying transient failures such as
// sharing violations. A path that vanished concurrently counts as success; a
// path-too-long failure is fatal and surfaces immediately.
func (p *FSProvider) removeWithRetry(ctx context.Context, path string) error {
	attempts := p.retry.Retries + 1
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if err := p.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return errors.Is(err, syscall.ENAMETOOLONG)
		},
		NotifyFunc: func(err error, attempt int) {
			p.logger.Warn("blob delete failed",
				"path", path,
				"attempt", attempt,
				"error", err,
			)
		},
		Attempts: attempts,
		Delay:    p.retry.Delay,
		Clock:    p.clk,
		Stop:     ctx.Done(),
	})
	switch {
	case err == nil:
		return nil
	case retry.IsAttemptsExceeded(err):
		return &RetryExhaustedError{Path: path, Attempts: attempts, cause: retry.LastError(err)}
	case retry.IsRetryStopped(err):
		return fmt.Errorf("delete %s: %w", path, ctx.Err())
	default:
		return fmt.Errorf("delete %s: %w", path, err)
	}
}

// pruneEmptyDirs removes now-empty ancestors of dir, stopping at (and never
// removing) the provider root. Failures are discarded: the blob removal has
// already succeeded, and a concurrently repopulated directory simply stays.
func (p *FSProvider) pruneEmptyDirs(dir string) {
	for dir != p.rootDir && strings.HasPrefix(dir, p.rootDir+string(os.PathSeparator)) {
		names, err := p.fs.ReadDirNames(dir)
		if err != nil || len(names) > 0 {
			return
		}
		if err := p.fs.RemoveDir(dir); err != nil {
			p.logger.Debug("empty directory prune failed", "dir", dir, "error", err)
			return
		}
		dir = filepath.Dir(dir)
	}
}

// localPath validates that uri belongs to this provider and translates it to
// the physical file path. The cleaned path must stay strictly inside the root:
// a ".." segment survives the base prefix check but escapes on Clean.
func (p *FSProvider) localPath(uri *url.URL) (string, error) {
	phys, err := uriutil.ChangeBase(uri, p.base, p.fileBase)
	if err != nil {
		return "", err
	}
	path := filepath.Clean(filepath.FromSlash(phys.Path))
	if !strings.HasPrefix(path, p.rootDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: uri %q escapes the provider root", ErrInvalidArgument, uri)
	}
	return path, nil
}

// blobReader pairs the read buffer with the file it drains.
type blobReader struct {
	*bufio.Reader
	file io.ReadCloser
}

func (b *blobReader) Close() error { return b.file.Close() }

func parseBaseURI(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultBaseURI
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: base uri %q: %v", ErrInvalidArgument, raw, err)
	}
	base, err := uriutil.EnsureTrailingSlash(u)
	if err != nil {
		return nil, fmt.Errorf("base uri: %w", err)
	}
	return base, nil
}

func bufferSize(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultBufferSize, nil
	case n < 0:
		return 0, fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidArgument, n)
	}
	return n, nil
}
