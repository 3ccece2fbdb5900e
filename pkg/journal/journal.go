// Package journal owns the monotonic numbering of accepted nanopubs and
// their partitioning into fixed-size pages.
package journal

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/store"
)

// ErrPageNotFound is returned for pages that were never written.
var ErrPageNotFound = errors.New("journal: page not found")

const (
	keyID     = "journal:id"
	keyNextNo = "journal:next-nanopub-no"
	keyPgSize = "journal:page-size"
	pageKeyFn = "journal:page:%d"
)

// Journal persists its identity and counters in the backing store.
// Sequence numbers are 0-based; page numbers are 1-based. nextNo is kept
// in an atomic so concurrent readers never block the single writer.
type Journal struct {
	st       *store.Store
	id       int64
	pageSize int64
	nextNo   atomic.Int64
}

// Open loads the journal state from the store, initializing a fresh
// journal (new random identity, counter at zero) on first use. pageSize
// is fixed for the lifetime of a journal identity: a mismatch with the
// stored value is an error, not a migration.
func Open(st *store.Store, pageSize int64) (*Journal, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("journal: invalid page size %d", pageSize)
	}
	j := &Journal{st: st, pageSize: pageSize}

	idRaw, err := st.Get(keyID)
	if errors.Is(err, store.ErrNotFound) {
		j.id = rand.Int63n(1<<62) + 1
		if err := st.Set(keyID, []byte(strconv.FormatInt(j.id, 10))); err != nil {
			return nil, err
		}
		if err := st.Set(keyNextNo, []byte("0")); err != nil {
			return nil, err
		}
		if err := st.Set(keyPgSize, []byte(strconv.FormatInt(pageSize, 10))); err != nil {
			return nil, err
		}
		logger.Info("journal_created", "journal_id", j.id, "page_size", pageSize)
		return j, nil
	}
	if err != nil {
		return nil, err
	}

	j.id, err = parseCounter(idRaw)
	if err != nil {
		return nil, fmt.Errorf("journal: corrupt id: %w", err)
	}
	stored, err := readCounter(st, keyPgSize)
	if err != nil {
		return nil, fmt.Errorf("journal: corrupt page size: %w", err)
	}
	if stored != pageSize {
		return nil, fmt.Errorf("journal: configured page size %d does not match stored %d", pageSize, stored)
	}
	next, err := readCounter(st, keyNextNo)
	if err != nil {
		return nil, fmt.Errorf("journal: corrupt counter: %w", err)
	}
	j.nextNo.Store(next)
	logger.Info("journal_loaded", "journal_id", j.id, "next_nanopub_no", next, "page_size", pageSize)
	return j, nil
}

// ID returns the journal identity. It changes only when the journal's
// history is reset or replaced out of band.
func (j *Journal) ID() int64 { return j.id }

// PageSize returns the fixed page size.
func (j *Journal) PageSize() int64 { return j.pageSize }

// NextNanopubNo returns the next sequence number to be assigned.
func (j *Journal) NextNanopubNo() int64 { return j.nextNo.Load() }

// CurrentPageNo returns the 1-based number of the page the next accepted
// nanopub lands on. All lower-numbered pages are complete.
func (j *Journal) CurrentPageNo() int64 {
	return j.nextNo.Load()/j.pageSize + 1
}

// StateID is a compact token that changes with every accepted nanopub
// and with any journal reset; used as a weak ETag on listings.
func (j *Journal) StateID() string {
	return fmt.Sprintf("%d/%d", j.id, j.nextNo.Load())
}

// ReserveNextNumber durably increments the counter and returns the
// previous value. This is the sequence commit point: once returned, the
// number is permanently assigned even if no page text reflects it yet.
func (j *Journal) ReserveNextNumber() (int64, error) {
	n := j.nextNo.Load()
	if err := j.st.Set(keyNextNo, []byte(strconv.FormatInt(n+1, 10))); err != nil {
		return 0, err
	}
	j.nextNo.Store(n + 1)
	return n, nil
}

// CheckNextNanopubNo re-reads the stored counter and adopts it if it ran
// ahead of the in-memory value (out-of-band repair of the backing store).
func (j *Journal) CheckNextNanopubNo() error {
	stored, err := readCounter(j.st, keyNextNo)
	if err != nil {
		return err
	}
	if cur := j.nextNo.Load(); stored != cur {
		logger.Warn("journal_counter_skew", "memory", cur, "stored", stored)
		if stored > cur {
			j.nextNo.Store(stored)
		}
	}
	return nil
}

// PageContent returns the stored line list for a page. The current page
// reads as empty until its first entry is written; pages beyond it were
// never written and yield ErrPageNotFound.
func (j *Journal) PageContent(pageNo int64) (string, error) {
	if pageNo < 1 {
		return "", ErrPageNotFound
	}
	b, err := j.st.Get(fmt.Sprintf(pageKeyFn, pageNo))
	if errors.Is(err, store.ErrNotFound) {
		if pageNo == j.CurrentPageNo() {
			return "", nil
		}
		return "", ErrPageNotFound
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetPageContent overwrites the stored content for a page. Only ever
// called for the current page, to append one line.
func (j *Journal) SetPageContent(pageNo int64, content string) error {
	return j.st.Set(fmt.Sprintf(pageKeyFn, pageNo), []byte(content))
}

func readCounter(st *store.Store, key string) (int64, error) {
	b, err := st.Get(key)
	if err != nil {
		return 0, err
	}
	return parseCounter(b)
}

func parseCounter(b []byte) (int64, error) {
	return strconv.ParseInt(string(b), 10, 64)
}
