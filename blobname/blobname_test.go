package blobname

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var nameRe = regexp.MustCompile(`^\d{4}/\d{4}/\d{8}_\d{6}_[0-9a-f]{8}$`)

func TestNext_Format(t *testing.T) {
	name := Next('/', "")
	assert.Regexp(t, nameRe, name)
}

func TestNext_ExtensionVerbatim(t *testing.T) {
	// Callers dot-normalize; Next appends exactly what it is given.
	assert.Regexp(t, `\.txt$`, Next('/', ".txt"))
	assert.Regexp(t, `[0-9a-f]txt$`, Next('/', "txt"))
}

func TestNext_Separator(t *testing.T) {
	name := Next('\\', "")
	assert.Regexp(t, `^\d{4}\\\d{4}\\\d{8}_\d{6}_[0-9a-f]{8}$`, name)
}

func TestNext_ConcurrentUniqueness(t *testing.T) {
	const n = 100

	var (
		mu    sync.Mutex
		names = make(map[string]struct{}, n)
	)

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			name := Next('/', ".bin")
			mu.Lock()
			names[name] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Uniqueness is probabilistic, but 100 draws colliding on an 8-hex
	// suffix within one second is effectively impossible.
	assert.Len(t, names, n)
}
