// Package db wires the journal, the nanopub table, the package cache and
// the peer registry into one service. It is constructed explicitly and
// injected by the hosting application; there is no package-level instance.
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nanopubd/pkg/journal"
	"nanopubd/pkg/logger"
	"nanopubd/pkg/nanopub"
	"nanopubd/pkg/store"
)

// Policy holds the admission limits and this instance's public URL.
// Zero limits mean "unlimited".
type Policy struct {
	MaxNanopubTriples int64
	MaxNanopubBytes   int64
	MaxNanopubs       int64
	PublicURL         string
}

// NanopubDb is the content-addressable nanopub store plus the append
// protocol. LoadNanopub is the single writer; reads run concurrently.
type NanopubDb struct {
	loadMu sync.Mutex // serializes the whole append protocol

	st     *store.Store
	j      *journal.Journal
	policy Policy
	client *http.Client // peer admission calls
}

// npDoc is the stored shape of one nanopub, keyed by artifact code.
type npDoc struct {
	URI     string `json:"uri"`
	Content string `json:"content"`
}

func npKey(artifactCode string) string { return "np:" + artifactCode }

// New builds a NanopubDb over an opened store and journal.
func New(st *store.Store, j *journal.Journal, policy Policy) *NanopubDb {
	return &NanopubDb{
		st:     st,
		j:      j,
		policy: policy,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Journal exposes the journal for read-only callers (listings, info).
func (d *NanopubDb) Journal() *journal.Journal { return d.j }

// SetHTTPClient replaces the client used for peer admission calls.
func (d *NanopubDb) SetHTTPClient(c *http.Client) { d.client = c }

// GetNanopub returns the stored nanopub for an artifact code.
func (d *NanopubDb) GetNanopub(artifactCode string) (*nanopub.Nanopub, error) {
	b, err := d.st.Get(npKey(artifactCode))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNanopubNotFound, artifactCode)
	}
	if err != nil {
		return nil, err
	}
	var doc npDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("stored nanopub %s is corrupted: %w", artifactCode, err)
	}
	np, err := nanopub.Parse([]byte(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("stored nanopub %s is not well-formed: %w", artifactCode, err)
	}
	np.URI = doc.URI
	return np, nil
}

// HasNanopub reports whether an artifact code is stored.
func (d *NanopubDb) HasNanopub(artifactCode string) (bool, error) {
	return d.st.Has(npKey(artifactCode))
}

// IsFull reports whether the configured maximum nanopub count is reached.
func (d *NanopubDb) IsFull() bool {
	return d.policy.MaxNanopubs > 0 && d.j.NextNanopubNo() >= d.policy.MaxNanopubs
}

// LoadNanopub runs the append protocol: normalize, verify trustiness,
// check size and capacity policy, then append to the journal and insert
// the record. Loading an already-stored nanopub is a no-op, not an error.
func (d *NanopubDb) LoadNanopub(np *nanopub.Nanopub) error {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()

	np.Normalize()
	if !nanopub.IsValidTrusty(np) {
		return fmt.Errorf("%w: %s", ErrNotTrusty, np.URI)
	}
	if d.policy.MaxNanopubTriples > 0 && np.TripleCount > d.policy.MaxNanopubTriples {
		return fmt.Errorf("%w: %s: %d triples", ErrOversized, np.URI, np.TripleCount)
	}
	if d.policy.MaxNanopubBytes > 0 && np.ByteCount > d.policy.MaxNanopubBytes {
		return fmt.Errorf("%w: %s: %d bytes", ErrOversized, np.URI, np.ByteCount)
	}
	if d.IsFull() {
		return ErrServerFull
	}

	artifactCode := nanopub.ArtifactCode(np.URI)
	has, err := d.st.Has(npKey(artifactCode))
	if err != nil {
		return err
	}
	if has {
		logger.Debug("nanopub_duplicate", "uri", np.URI)
		return nil
	}

	if err := d.j.CheckNextNanopubNo(); err != nil {
		return err
	}
	pageNo := d.j.CurrentPageNo()
	pageContent, err := d.j.PageContent(pageNo)
	if err != nil {
		return err
	}
	pageContent += np.URI + "\n"
	doc, err := json.Marshal(npDoc{URI: np.URI, Content: np.Content})
	if err != nil {
		return err
	}
	// The next three writes are not atomic. If the process dies after the
	// reservation, the current page misses one entry until a later append
	// re-reads and extends the live page text. If it dies after the page
	// write, the page names a nanopub the store does not have yet; a
	// resubmission of the same nanopub heals it via the duplicate check.
	if _, err := d.j.ReserveNextNumber(); err != nil {
		return err
	}
	if err := d.j.SetPageContent(pageNo, pageContent); err != nil {
		return err
	}
	if err := d.st.Set(npKey(artifactCode), doc); err != nil {
		return err
	}
	logger.Info("nanopub_loaded", "uri", np.URI, "no", d.j.NextNanopubNo()-1, "page", pageNo)
	return nil
}
