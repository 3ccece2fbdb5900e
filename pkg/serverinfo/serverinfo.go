// Package serverinfo implements the peer info protocol: the identity
// document every instance serves and the client used to fetch a peer's.
package serverinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnreachable means the peer could not be contacted.
var ErrUnreachable = errors.New("serverinfo: peer unreachable")

// ErrInvalid means the peer answered with an unusable info document.
var ErrInvalid = errors.New("serverinfo: invalid peer info")

// Path is where every instance serves its own info document.
const Path = "/serverinfo.json"

// ServerInfo describes one server instance: its public identity, journal
// identity and capacity limits. Zero limits mean "unlimited".
type ServerInfo struct {
	PublicURL         string `json:"publicUrl"`
	JournalID         int64  `json:"journalId"`
	PageSize          int64  `json:"pageSize"`
	NextNanopubNo     int64  `json:"nextNanopubNo"`
	MaxNanopubTriples int64  `json:"maxNanopubTriples,omitempty"`
	MaxNanopubBytes   int64  `json:"maxNanopubBytes,omitempty"`
	MaxNanopubs       int64  `json:"maxNanopubs,omitempty"`
}

// Load fetches and validates a peer's info document. Callers bound the
// call with the client's timeout or the context.
func Load(ctx context.Context, client *http.Client, peerURL string) (*ServerInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(peerURL, "/") + Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, peerURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, peerURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUnreachable, peerURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, peerURL, err)
	}
	var info ServerInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, peerURL, err)
	}
	if info.PublicURL == "" || info.JournalID == 0 || info.PageSize < 1 {
		return nil, fmt.Errorf("%w: %s: incomplete document", ErrInvalid, peerURL)
	}
	return &info, nil
}
