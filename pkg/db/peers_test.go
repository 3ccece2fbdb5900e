package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nanopubd/pkg/serverinfo"
)

func TestAddInitialPeers(t *testing.T) {
	d := newTestDb(t, 10, Policy{PublicURL: "http://self.example.org"})
	err := d.AddInitialPeers([]string{
		"http://peer-a.example.org",
		"http://self.example.org", // own URL is skipped
		"http://peer-b.example.org",
		"http://peer-a.example.org", // repeat is idempotent
	})
	if err != nil {
		t.Fatalf("AddInitialPeers: %v", err)
	}
	peers, err := d.PeerURIs()
	if err != nil {
		t.Fatalf("PeerURIs: %v", err)
	}
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %v", peers)
	}
}

func TestAddPeerValidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != serverinfo.Path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"publicUrl":"http://peer.example.org","journalId":42,"pageSize":1000,"nextNanopubNo":0}`))
	}))
	defer srv.Close()

	d := newTestDb(t, 10, Policy{PublicURL: "http://self.example.org"})
	d.SetHTTPClient(srv.Client())

	if err := d.AddPeer(context.Background(), srv.URL); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}
	peers, _ := d.PeerURIs()
	if len(peers) != 1 || peers[0] != srv.URL {
		t.Fatalf("peer not recorded: %v", peers)
	}

	// self-registration is a silent no-op
	if err := d.AddPeer(context.Background(), "http://self.example.org"); err != nil {
		t.Fatalf("self AddPeer: %v", err)
	}
	peers, _ = d.PeerURIs()
	if len(peers) != 1 {
		t.Fatalf("self registration recorded: %v", peers)
	}
}

func TestAddPeerUnreachable(t *testing.T) {
	d := newTestDb(t, 10, Policy{})
	err := d.AddPeer(context.Background(), "http://127.0.0.1:1")
	if err == nil {
		t.Fatalf("expected error for unreachable peer")
	}
}

func TestPeerStateRoundtrip(t *testing.T) {
	d := newTestDb(t, 10, Policy{})
	peerURL := "http://peer.example.org"
	if err := d.AddInitialPeers([]string{peerURL}); err != nil {
		t.Fatalf("AddInitialPeers: %v", err)
	}

	// never synced: no cursor yet
	_, _, ok, err := d.LastSeenPeerState(peerURL)
	if err != nil {
		t.Fatalf("LastSeenPeerState: %v", err)
	}
	if ok {
		t.Fatalf("expected no cursor before first sync")
	}

	info := &serverinfo.ServerInfo{PublicURL: peerURL, JournalID: 77, PageSize: 1000, NextNanopubNo: 123}
	if err := d.UpdatePeerState(peerURL, info, 123); err != nil {
		t.Fatalf("UpdatePeerState: %v", err)
	}
	jid, next, ok, err := d.LastSeenPeerState(peerURL)
	if err != nil {
		t.Fatalf("LastSeenPeerState: %v", err)
	}
	if !ok || jid != 77 || next != 123 {
		t.Fatalf("cursor roundtrip: ok=%v jid=%d next=%d", ok, jid, next)
	}

	// unknown peer
	_, _, ok, err = d.LastSeenPeerState("http://unknown.example.org")
	if err != nil || ok {
		t.Fatalf("unknown peer: ok=%v err=%v", ok, err)
	}
}
