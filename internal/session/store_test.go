package session

import (
	"testing"
	"time"

	"betmetrics/internal/core"
)

func testRecord(betID string) core.BetRecord {
	return core.BetRecord{
		BetID:      betID,
		Stake:      core.Money{Pence: 100},
		CustomerID: "C-" + betID,
		Market:     "Match Odds",
		Selection:  "Home",
		StruckAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Source:     core.SourceBetfair,
	}
}

func TestStoreAppendAndRecords(t *testing.T) {
	store := NewStore(10, time.Hour)
	sess := store.Create()
	if sess.ID == "" {
		t.Fatalf("session should have an ID")
	}
	if !store.Lookup(sess.ID) {
		t.Fatalf("fresh session should be alive")
	}

	file := FileSummary{Name: "a.xlsx", Rows: 2}
	err := store.Append(sess.ID, file, []core.BetRecord{testRecord("1"), testRecord("2")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(sess.ID, FileSummary{Name: "b.xlsx", Rows: 1}, []core.BetRecord{testRecord("3")}); err != nil {
		t.Fatalf("append: %v", err)
	}

	recs := store.Records(sess.ID)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].BetID != "1" || recs[2].BetID != "3" {
		t.Fatalf("records out of upload order: %+v", recs)
	}
	files := store.Files(sess.ID)
	if len(files) != 2 || files[0].Name != "a.xlsx" {
		t.Fatalf("files = %+v", files)
	}

	// Returned slices are copies.
	recs[0].BetID = "mutated"
	if store.Records(sess.ID)[0].BetID != "1" {
		t.Fatalf("store records were mutated through a returned copy")
	}
}

func TestStoreAppendUnknownSession(t *testing.T) {
	store := NewStore(10, time.Hour)
	if err := store.Append("missing", FileSummary{}, nil); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore(10, time.Hour)
	sess := store.Create()
	if err := store.Append(sess.ID, FileSummary{Name: "a.xlsx", Rows: 1}, []core.BetRecord{testRecord("1")}); err != nil {
		t.Fatalf("append: %v", err)
	}

	store.Clear(sess.ID)
	if got := store.Records(sess.ID); len(got) != 0 {
		t.Fatalf("records after clear = %d, want 0", len(got))
	}
	if got := store.Files(sess.ID); len(got) != 0 {
		t.Fatalf("files after clear = %d, want 0", len(got))
	}
	// The session itself survives for the next upload.
	if !store.Lookup(sess.ID) {
		t.Fatalf("cleared session should still be alive")
	}
}

func TestStoreExpiry(t *testing.T) {
	store := NewStore(10, 10*time.Millisecond)
	sess := store.Create()
	time.Sleep(25 * time.Millisecond)
	if store.Lookup(sess.ID) {
		t.Fatalf("expired session should be gone")
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2, time.Hour)
	first := store.Create()
	store.Create()
	store.Create()
	if store.Lookup(first.ID) {
		t.Fatalf("oldest session should have been evicted")
	}
}
