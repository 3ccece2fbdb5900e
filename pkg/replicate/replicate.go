// Package replicate implements scheduled pull replication: each round it
// walks the known peers, fetches journal pages beyond the last recorded
// cursor and loads every nanopub it has not seen. Loading is idempotent,
// so overlap between rounds is harmless (at-least-once delivery).
package replicate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/klauspost/compress/gzip"

	"nanopubd/pkg/config"
	"nanopubd/pkg/db"
	"nanopubd/pkg/logger"
	"nanopubd/pkg/nanopub"
	"nanopubd/pkg/serverinfo"
)

// Runner drives replication rounds against a NanopubDb.
type Runner struct {
	DB     *db.NanopubDb
	Client *http.Client
}

// New builds a Runner with a timeout-bounded HTTP client.
func New(d *db.NanopubDb) *Runner {
	return &Runner{DB: d, Client: &http.Client{Timeout: 60 * time.Second}}
}

// Start starts the replication scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, d *db.NanopubDb, cfg config.ReplicationConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("replication_disabled")
		return func() {}, nil
	}
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("replication_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid replication cron expression: %s", cfg.Cron)
	}
	logger.Info("replication_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, New(d), cronExpr)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured
// cron expression and sleeps until that time.
func runScheduler(ctx context.Context, r *Runner, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("replication_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("replication_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := r.RunOnce(ctx); err != nil {
				logger.Error("replication_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("replication_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs one replication round across all known peers. A
// failing peer is logged and skipped; it does not abort the round.
func (r *Runner) RunOnce(ctx context.Context) error {
	peers, err := r.DB.PeerURIs()
	if err != nil {
		return err
	}
	for _, peerURL := range peers {
		if err := r.replicatePeer(ctx, peerURL); err != nil {
			logger.Warn("replication_peer_failed", "peer", peerURL, "error", err)
		}
	}
	return nil
}

// replicatePeer pulls everything past the recorded cursor from one peer
// and advances the cursor on success.
func (r *Runner) replicatePeer(ctx context.Context, peerURL string) error {
	info, err := serverinfo.Load(ctx, r.Client, peerURL)
	if err != nil {
		return err
	}

	lastJID, cursor, ok, err := r.DB.LastSeenPeerState(peerURL)
	if err != nil {
		return err
	}
	if !ok || lastJID != info.JournalID {
		// Unknown cursor, or the peer's journal was reset; start over.
		cursor = 0
	}
	if info.NextNanopubNo <= cursor {
		return r.DB.UpdatePeerState(peerURL, info, cursor)
	}

	base := strings.TrimRight(peerURL, "/")
	startPage := cursor/info.PageSize + 1
	currentPage := info.NextNanopubNo/info.PageSize + 1

	loaded := 0
	for p := startPage; p < currentPage; p++ {
		n, err := r.loadPackage(ctx, base, p)
		if err != nil {
			return fmt.Errorf("page %d: %w", p, err)
		}
		loaded += n
	}
	n, err := r.loadCurrentPage(ctx, base, currentPage)
	if err != nil {
		return fmt.Errorf("page %d: %w", currentPage, err)
	}
	loaded += n

	logger.Info("replication_peer_done", "peer", peerURL, "loaded", loaded, "cursor", info.NextNanopubNo)
	return r.DB.UpdatePeerState(peerURL, info, info.NextNanopubNo)
}

// loadPackage fetches one complete page's gzipped bundle and loads every
// nanopub in it. Returns the number of newly parsed documents handed to
// the store (duplicates among them are no-ops).
func (r *Runner) loadPackage(ctx context.Context, base string, pageNo int64) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/packages/%d", base, pageNo), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("package fetch: status %d", resp.StatusCode)
	}
	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return 0, err
		}
		defer gr.Close()
		body = gr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, doc := range SplitBundle(string(raw)) {
		np, err := nanopub.Parse([]byte(doc))
		if err != nil {
			logger.Warn("replication_bad_document", "page", pageNo, "error", err)
			continue
		}
		if err := r.DB.LoadNanopub(np); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// loadCurrentPage fetches the peer's partial current page listing and
// loads each nanopub this instance does not have yet, one by one.
func (r *Runner) loadCurrentPage(ctx context.Context, base string, pageNo int64) (int, error) {
	listing, err := r.fetchText(ctx, fmt.Sprintf("%s/nanopubs?page=%d", base, pageNo))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, uri := range strings.Split(listing, "\n") {
		if uri == "" {
			continue
		}
		code := nanopub.ArtifactCode(uri)
		if code == "" {
			logger.Warn("replication_bad_uri", "uri", uri)
			continue
		}
		has, err := r.DB.HasNanopub(code)
		if err != nil {
			return count, err
		}
		if has {
			continue
		}
		body, err := r.fetchText(ctx, base+"/np/"+code)
		if err != nil {
			return count, err
		}
		np, err := nanopub.Parse([]byte(body))
		if err != nil {
			logger.Warn("replication_bad_document", "uri", uri, "error", err)
			continue
		}
		if err := r.DB.LoadNanopub(np); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *Runner) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// SplitBundle splits a package bundle into individual serialized
// nanopubs. Documents start at their `@prefix this:` declaration, the
// one line every stored nanopub carries first.
func SplitBundle(bundle string) []string {
	var docs []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			docs = append(docs, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(bundle, "\n") {
		if strings.HasPrefix(line, "@prefix this:") {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return docs
}
