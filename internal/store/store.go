package store

import "context"

// MessageStore is the persistence contract consumed by the ingestion
// pipeline, the consistency monitor and the read services. *DB implements
// it; tests substitute in-memory fakes where fault injection is needed.
type MessageStore interface {
	// InsertMessage persists one message. The id column is the primary key,
	// so a second insert with an already-stored id fails at the store.
	InsertMessage(ctx context.Context, m *Message) error

	// ListByDialog returns a dialog's messages ordered by created_at
	// ascending. limit <= 0 means no limit.
	ListByDialog(ctx context.Context, dialogID string, limit, offset int) ([]Message, error)

	// AllByDialog returns a dialog's full timeline ordered by created_at
	// ascending.
	AllByDialog(ctx context.Context, dialogID string) ([]Message, error)

	// DistinctDialogsBySender returns the distinct dialog ids the sender has
	// written into. limit <= 0 means no limit.
	DistinctDialogsBySender(ctx context.Context, senderID string, limit, offset int) ([]string, error)

	// LatestMessage returns the dialog's most recent message by created_at,
	// or nil if the dialog has none.
	LatestMessage(ctx context.Context, dialogID string) (*Message, error)

	// CountBySender returns the number of messages the sender has written.
	CountBySender(ctx context.Context, senderID string) (int64, error)

	// CountByDialogForSender returns per-dialog message counts for the sender.
	CountByDialogForSender(ctx context.Context, senderID string) ([]DialogCount, error)

	// SenderTimestamps returns all created_at values of the sender's
	// messages, across all dialogs, ascending.
	SenderTimestamps(ctx context.Context, senderID string) ([]int64, error)
}
