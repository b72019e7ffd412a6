package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *DB, m Message) {
	t.Helper()
	if m.Type == "" {
		m.Type = "text"
	}
	if err := db.InsertMessage(context.Background(), &m); err != nil {
		t.Fatalf("InsertMessage(%s): %v", m.ID, err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestInsertAndListByDialog(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insert(t, db, Message{ID: "m2", DialogID: "d1", SenderID: "u1", CreatedAt: 2000})
	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000, Content: "hi"})
	insert(t, db, Message{ID: "m3", DialogID: "d2", SenderID: "u2", CreatedAt: 3000})

	msgs, err := db.ListByDialog(ctx, "d1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	// Ordered by created_at ascending regardless of insert order.
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("order = [%s %s], want [m1 m2]", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Content != "hi" {
		t.Errorf("content = %q, want hi", msgs[0].Content)
	}
}

func TestInsertDuplicateIDFails(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	m := Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000, Type: "text"}
	if err := db.InsertMessage(ctx, &m); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertMessage(ctx, &m); err == nil {
		t.Error("second insert with same id should fail on primary key")
	}
}

func TestInsertDefaultsUpdatedAt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000})

	msgs, err := db.ListByDialog(ctx, "d1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].UpdatedAt == 0 {
		t.Error("UpdatedAt should default to persistence time")
	}
}

func TestListByDialogPagination(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		insert(t, db, Message{ID: id, DialogID: "d1", SenderID: "u1", CreatedAt: int64(i+1) * 1000})
	}

	msgs, err := db.ListByDialog(ctx, "d1", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "b" || msgs[1].ID != "c" {
		t.Errorf("page = [%s %s], want [b c]", msgs[0].ID, msgs[1].ID)
	}
}

func TestDistinctDialogsBySender(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000})
	insert(t, db, Message{ID: "m2", DialogID: "d1", SenderID: "u1", CreatedAt: 2000})
	insert(t, db, Message{ID: "m3", DialogID: "d2", SenderID: "u1", CreatedAt: 3000})
	insert(t, db, Message{ID: "m4", DialogID: "d3", SenderID: "u2", CreatedAt: 4000})

	dialogs, err := db.DistinctDialogsBySender(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dialogs) != 2 {
		t.Errorf("got %d dialogs, want 2 (distinct)", len(dialogs))
	}

	paged, err := db.DistinctDialogsBySender(ctx, "u1", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 {
		t.Errorf("got %d dialogs with limit=1 offset=1, want 1", len(paged))
	}
}

func TestLatestMessage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000})
	insert(t, db, Message{ID: "m2", DialogID: "d1", SenderID: "u1", CreatedAt: 5000})
	insert(t, db, Message{ID: "m3", DialogID: "d1", SenderID: "u1", CreatedAt: 3000})

	last, err := db.LatestMessage(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.ID != "m2" {
		t.Errorf("latest = %v, want m2", last)
	}

	// Empty dialog returns nil without error.
	last, err = db.LatestMessage(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Errorf("expected nil for empty dialog, got %v", last)
	}
}

func TestCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 1000})
	insert(t, db, Message{ID: "m2", DialogID: "d1", SenderID: "u1", CreatedAt: 2000})
	insert(t, db, Message{ID: "m3", DialogID: "d2", SenderID: "u1", CreatedAt: 3000})
	insert(t, db, Message{ID: "m4", DialogID: "d2", SenderID: "u2", CreatedAt: 4000})

	total, err := db.CountBySender(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("CountBySender = %d, want 3", total)
	}

	counts, err := db.CountByDialogForSender(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	byDialog := map[string]int64{}
	for _, c := range counts {
		byDialog[c.DialogID] = c.Count
	}
	if byDialog["d1"] != 2 || byDialog["d2"] != 1 {
		t.Errorf("per-dialog counts = %v, want d1:2 d2:1", byDialog)
	}
}

func TestSenderTimestamps(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Across two dialogs, returned as one ascending sequence.
	insert(t, db, Message{ID: "m1", DialogID: "d1", SenderID: "u1", CreatedAt: 4000})
	insert(t, db, Message{ID: "m2", DialogID: "d2", SenderID: "u1", CreatedAt: 1000})
	insert(t, db, Message{ID: "m3", DialogID: "d1", SenderID: "u2", CreatedAt: 2000})

	ts, err := db.SenderTimestamps(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 2 || ts[0] != 1000 || ts[1] != 4000 {
		t.Errorf("timestamps = %v, want [1000 4000]", ts)
	}
}
