package journal

import (
	"errors"
	"path/filepath"
	"testing"

	"nanopubd/pkg/store"
)

func openStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenFresh(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 100)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if j.ID() < 1 {
		t.Fatalf("expected positive journal id, got %d", j.ID())
	}
	if j.NextNanopubNo() != 0 {
		t.Fatalf("fresh journal counter should be 0, got %d", j.NextNanopubNo())
	}
	if j.CurrentPageNo() != 1 {
		t.Fatalf("fresh journal should be on page 1, got %d", j.CurrentPageNo())
	}
}

func TestReserveNextNumber(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for want := int64(0); want < 5; want++ {
		n, err := j.ReserveNextNumber()
		if err != nil {
			t.Fatalf("ReserveNextNumber: %v", err)
		}
		if n != want {
			t.Fatalf("expected %d, got %d", want, n)
		}
	}
	if j.NextNanopubNo() != 5 {
		t.Fatalf("counter should be 5, got %d", j.NextNanopubNo())
	}
}

func TestPageRollover(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// pages hold 3 entries: 0,1,2 on page 1, then 3 rolls to page 2
	for i := 0; i < 3; i++ {
		if got := j.CurrentPageNo(); got != 1 {
			t.Fatalf("after %d reservations expected page 1, got %d", i, got)
		}
		if _, err := j.ReserveNextNumber(); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	if got := j.CurrentPageNo(); got != 2 {
		t.Fatalf("expected rollover to page 2, got %d", got)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	st := openStore(t, dir)
	j, err := Open(st, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := j.ID()
	for i := 0; i < 4; i++ {
		if _, err := j.ReserveNextNumber(); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	if err := j.SetPageContent(1, "a\nb\nc\nd\n"); err != nil {
		t.Fatalf("SetPageContent: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2 := openStore(t, dir)
	j2, err := Open(st2, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if j2.ID() != id {
		t.Fatalf("journal id changed across reopen: %d vs %d", j2.ID(), id)
	}
	if j2.NextNanopubNo() != 4 {
		t.Fatalf("counter lost: got %d", j2.NextNanopubNo())
	}
	content, err := j2.PageContent(1)
	if err != nil {
		t.Fatalf("PageContent: %v", err)
	}
	if content != "a\nb\nc\nd\n" {
		t.Fatalf("page content lost: %q", content)
	}
}

func TestPageSizeMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	st := openStore(t, dir)
	if _, err := Open(st, 10); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	st2 := openStore(t, dir)
	if _, err := Open(st2, 20); err == nil {
		t.Fatalf("expected page size mismatch error")
	}
}

func TestPageContentBounds(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// current page reads empty before the first entry
	content, err := j.PageContent(1)
	if err != nil {
		t.Fatalf("current page: %v", err)
	}
	if content != "" {
		t.Fatalf("expected empty current page, got %q", content)
	}
	// pages beyond current and page 0 do not exist
	if _, err := j.PageContent(2); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound for future page, got %v", err)
	}
	if _, err := j.PageContent(0); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound for page 0, got %v", err)
	}
}

func TestStateIDChangesPerReservation(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	before := j.StateID()
	if _, err := j.ReserveNextNumber(); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if j.StateID() == before {
		t.Fatalf("state id did not change after reservation")
	}
}

func TestCheckNextNanopubNoAdoptsStoredValue(t *testing.T) {
	st := openStore(t, filepath.Join(t.TempDir(), "db"))
	j, err := Open(st, 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// simulate an out-of-band repair bumping the stored counter
	if err := st.Set("journal:next-nanopub-no", []byte("7")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := j.CheckNextNanopubNo(); err != nil {
		t.Fatalf("CheckNextNanopubNo: %v", err)
	}
	if j.NextNanopubNo() != 7 {
		t.Fatalf("expected adopted counter 7, got %d", j.NextNanopubNo())
	}
}
