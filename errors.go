package blobvault

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/blobvault/uriutil"
)

var (
	// ErrInvalidArgument is returned for nil required inputs, relative URIs,
	// and URIs outside the provider's namespace. It is raised before any I/O
	// is attempted and is never retried.
	ErrInvalidArgument = uriutil.ErrInvalidArgument

	// ErrNotFound is returned when no blob exists at the given URI.
	//
	// Implementations return an error that satisfies
	// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
	ErrNotFound = os.ErrNotExist

	// ErrCollision is returned when a freshly generated blob path is already
	// occupied at creation time. It indicates an environment anomaly, not a
	// transient condition, and is never retried.
	ErrCollision = errors.New("generated blob path already occupied")

	// ErrExists is returned by ObjectClient.Put when the name is taken.
	// Providers translate it into ErrCollision.
	ErrExists = errors.New("object already exists")
)

// RetryExhaustedError indicates a blob deletion that kept failing after the
// configured number of retries.
//
// The last underlying error can be accessed via errors.Unwrap.
type RetryExhaustedError struct {
	Path     string
	Attempts int
	cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("delete %s: still failing after %d attempts: %v", e.Path, e.Attempts, e.cause)
}

func (e *RetryExhaustedError) Unwrap() error { return e.cause }
