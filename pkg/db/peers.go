package db

import (
	"context"
	"encoding/json"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/serverinfo"
	"nanopubd/pkg/store"
)

func peerKey(url string) string { return "peer:" + url }

// peerDoc is the stored replication cursor for one peer. Nil fields mean
// "never successfully synced".
type peerDoc struct {
	URL           string `json:"url"`
	JournalID     *int64 `json:"journalId,omitempty"`
	NextNanopubNo *int64 `json:"nextNanopubNo,omitempty"`
}

// PeerURIs returns the known peer URLs, in no particular order.
func (d *NanopubDb) PeerURIs() ([]string, error) {
	var out []string
	err := d.st.ScanPrefix("peer:", func(key string, value []byte) error {
		var doc peerDoc
		if err := json.Unmarshal(value, &doc); err != nil {
			return err
		}
		out = append(out, doc.URL)
		return nil
	})
	return out, err
}

// AddPeer validates a candidate peer by fetching its info document, then
// records it. Registering this instance's own public URL is a silent
// no-op, and insertion is idempotent.
func (d *NanopubDb) AddPeer(ctx context.Context, peerURL string) error {
	if peerURL == d.policy.PublicURL {
		return nil
	}
	if _, err := serverinfo.Load(ctx, d.client, peerURL); err != nil {
		return err
	}
	return d.addPeerToStore(peerURL)
}

// AddInitialPeers records configured bootstrap peers without contacting
// them; they are validated when the first replication round runs.
func (d *NanopubDb) AddInitialPeers(urls []string) error {
	for _, u := range urls {
		if u == d.policy.PublicURL {
			continue
		}
		if err := d.addPeerToStore(u); err != nil {
			return err
		}
	}
	return nil
}

func (d *NanopubDb) addPeerToStore(peerURL string) error {
	has, err := d.st.Has(peerKey(peerURL))
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	b, err := json.Marshal(peerDoc{URL: peerURL})
	if err != nil {
		return err
	}
	if err := d.st.Set(peerKey(peerURL), b); err != nil {
		return err
	}
	logger.Info("peer_added", "url", peerURL)
	return nil
}

// UpdatePeerState records the cursor reached while replicating from a
// peer. Keyed by the registered URL, not the one the peer advertises, so
// the cursor stays attached to the entry the replicator iterates. Last
// write wins; there is deliberately no ordering check against a
// concurrent stale update.
func (d *NanopubDb) UpdatePeerState(peerURL string, info *serverinfo.ServerInfo, nextNanopubNo int64) error {
	jid := info.JournalID
	no := nextNanopubNo
	b, err := json.Marshal(peerDoc{URL: peerURL, JournalID: &jid, NextNanopubNo: &no})
	if err != nil {
		return err
	}
	return d.st.Set(peerKey(peerURL), b)
}

// LastSeenPeerState returns the recorded cursor for a peer. ok is false
// when the peer is unknown or has never completed a replication round.
func (d *NanopubDb) LastSeenPeerState(peerURL string) (journalID, nextNanopubNo int64, ok bool, err error) {
	b, err := d.st.Get(peerKey(peerURL))
	if err != nil {
		if err == store.ErrNotFound {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	var doc peerDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return 0, 0, false, err
	}
	if doc.JournalID == nil || doc.NextNanopubNo == nil {
		return 0, 0, false, nil
	}
	return *doc.JournalID, *doc.NextNanopubNo, true, nil
}
