// Package blobname generates collision-resistant, sortable blob identifiers.
//
// An identifier is a relative path of the form
//
//	YYYY<sep>MMDD<sep>YYYYMMDD_HHMMSS_xxxxxxxx<ext>
//
// i.e. a two-level date bucket plus a timestamp-and-random-hex leaf name.
// Uniqueness is probabilistic: the 8-hex-digit suffix is drawn from a single
// process-wide generator seeded from a UUID rather than the clock, so two
// processes starting in the same instant do not share a sequence.
package blobname

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	mu  sync.Mutex
	rng = newRand()
)

func newRand() *rand.Rand {
	id := uuid.New()
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(id[:8]),
		binary.BigEndian.Uint64(id[8:]),
	))
}

// Next returns a fresh identifier joined with sep. The extension is appended
// verbatim; callers dot-normalize it first. Safe for concurrent use; the
// generator lock is held only while drawing the random suffix.
func Next(sep rune, ext string) string {
	now := time.Now().UTC()

	mu.Lock()
	suffix := rng.Uint32()
	mu.Unlock()

	return fmt.Sprintf("%s%c%s%c%s_%08x%s",
		now.Format("2006"), sep,
		now.Format("0102"), sep,
		now.Format("20060102_150405"), suffix, ext)
}
