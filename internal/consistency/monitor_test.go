package consistency

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/feedsink/feedsink/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *store.DB, id, dialogID string, createdAt int64) {
	t.Helper()
	err := db.InsertMessage(context.Background(), &store.Message{
		ID: id, DialogID: dialogID, SenderID: "u1", CreatedAt: createdAt, Type: "text",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCheckFlagsGap(t *testing.T) {
	db := testDB(t)
	m := NewMonitor(db, 10000, zap.NewNop())

	insert(t, db, "m1", "d1", 0)
	insert(t, db, "m2", "d1", 5000)
	insert(t, db, "m3", "d1", 20000)

	if err := m.Check(context.Background(), "d1"); err != nil {
		t.Fatal(err)
	}
	// 5000-0 is under the threshold; 20000-5000 = 15000 is over.
	if got := m.Missed("d1"); got != 1 {
		t.Errorf("missed = %d, want 1", got)
	}
}

func TestCheckNoGap(t *testing.T) {
	db := testDB(t)
	m := NewMonitor(db, 10000, zap.NewNop())

	insert(t, db, "m1", "d1", 0)
	insert(t, db, "m2", "d1", 9000)

	if err := m.Check(context.Background(), "d1"); err != nil {
		t.Fatal(err)
	}
	if got := m.Missed("d1"); got != 0 {
		t.Errorf("missed = %d, want 0", got)
	}

	// Exactly at the threshold is not a gap; it must be strictly greater.
	insert(t, db, "m3", "d1", 19000)
	if err := m.Check(context.Background(), "d1"); err != nil {
		t.Fatal(err)
	}
	if got := m.Missed("d1"); got != 0 {
		t.Errorf("missed = %d, want 0 (10000ms is not > threshold)", got)
	}
}

func TestCheckCountsEveryGapInScan(t *testing.T) {
	db := testDB(t)
	m := NewMonitor(db, 10000, zap.NewNop())

	insert(t, db, "m1", "d1", 0)
	insert(t, db, "m2", "d1", 20000)
	insert(t, db, "m3", "d1", 50000)

	if err := m.Check(context.Background(), "d1"); err != nil {
		t.Fatal(err)
	}
	if got := m.Missed("d1"); got != 2 {
		t.Errorf("missed = %d, want 2 (both gaps in one scan)", got)
	}
}

// TestRepeatedChecksRecount pins the full-rescan quirk: each check walks the
// entire history, so a gap flagged once is counted again by the next check.
func TestRepeatedChecksRecount(t *testing.T) {
	db := testDB(t)
	m := NewMonitor(db, 10000, zap.NewNop())

	insert(t, db, "m1", "d1", 0)
	insert(t, db, "m2", "d1", 20000)

	ctx := context.Background()
	if err := m.Check(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Check(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if got := m.Missed("d1"); got != 2 {
		t.Errorf("missed = %d, want 2 (same gap recounted per check)", got)
	}
}

func TestCountsIsolatedPerDialog(t *testing.T) {
	db := testDB(t)
	m := NewMonitor(db, 10000, zap.NewNop())
	ctx := context.Background()

	insert(t, db, "m1", "d1", 0)
	insert(t, db, "m2", "d1", 20000)
	insert(t, db, "m3", "d2", 0)
	insert(t, db, "m4", "d2", 1000)

	if err := m.Check(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Check(ctx, "d2"); err != nil {
		t.Fatal(err)
	}

	counts := m.Counts()
	if counts["d1"] != 1 {
		t.Errorf("d1 missed = %d, want 1", counts["d1"])
	}
	if _, ok := counts["d2"]; ok {
		t.Error("d2 should have no missed entry")
	}
}
