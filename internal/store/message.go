package store

import (
	"context"
	"database/sql"
	"time"
)

const messageColumns = `id, dialog_id, sender_id, created_at, delivered, type,
	content, caption, image_url, video_url, thumbnail_url, duration, updated_at`

// InsertMessage persists one message. Duplicate ids are rejected by the
// primary key; at-most-once within the cache horizon is the pipeline's job,
// not the store's.
func (db *DB) InsertMessage(ctx context.Context, m *Message) error {
	updatedAt := m.UpdatedAt
	if updatedAt == 0 {
		updatedAt = time.Now().UnixMilli()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.DialogID, m.SenderID, m.CreatedAt, m.Delivered, m.Type,
		m.Content, m.Caption, m.ImageURL, m.VideoURL, m.ThumbnailURL, m.Duration, updatedAt)
	return err
}

// ListByDialog returns messages for a dialog ordered by created_at ascending.
// limit <= 0 means no limit.
func (db *DB) ListByDialog(ctx context.Context, dialogID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE dialog_id = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?`, dialogID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanMessages(rows)
}

// AllByDialog returns the full ordered timeline for a dialog.
func (db *DB) AllByDialog(ctx context.Context, dialogID string) ([]Message, error) {
	return db.ListByDialog(ctx, dialogID, 0, 0)
}

// DistinctDialogsBySender returns the distinct dialog ids the sender has
// written into. limit <= 0 means no limit. Order is store default.
func (db *DB) DistinctDialogsBySender(ctx context.Context, senderID string, limit, offset int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT dialog_id
		FROM messages
		WHERE sender_id = ?
		LIMIT ? OFFSET ?`, senderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dialogs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dialogs = append(dialogs, id)
	}
	return dialogs, rows.Err()
}

// LatestMessage returns the dialog's most recent message, or nil if none.
func (db *DB) LatestMessage(ctx context.Context, dialogID string) (*Message, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE dialog_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, dialogID)

	var m Message
	err := scanMessage(row, &m)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountBySender returns the number of messages the sender has written.
func (db *DB) CountBySender(ctx context.Context, senderID string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE sender_id = ?`, senderID).Scan(&count)
	return count, err
}

// CountByDialogForSender returns per-dialog message counts for the sender.
func (db *DB) CountByDialogForSender(ctx context.Context, senderID string) ([]DialogCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT dialog_id, COUNT(*)
		FROM messages
		WHERE sender_id = ?
		GROUP BY dialog_id`, senderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var counts []DialogCount
	for rows.Next() {
		var c DialogCount
		if err := rows.Scan(&c.DialogID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// SenderTimestamps returns all created_at values for the sender's messages,
// across all dialogs, ascending.
func (db *DB) SenderTimestamps(ctx context.Context, senderID string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT created_at
		FROM messages
		WHERE sender_id = ?
		ORDER BY created_at ASC`, senderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ts []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ts = append(ts, v)
	}
	return ts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner, m *Message) error {
	return row.Scan(
		&m.ID, &m.DialogID, &m.SenderID, &m.CreatedAt, &m.Delivered, &m.Type,
		&m.Content, &m.Caption, &m.ImageURL, &m.VideoURL, &m.ThumbnailURL,
		&m.Duration, &m.UpdatedAt)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
