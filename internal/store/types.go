package store

// Message is one chat event received from the feed. CreatedAt is the
// sender-supplied timestamp in unix milliseconds and is not guaranteed
// monotonic within a dialog.
type Message struct {
	ID        string
	DialogID  string
	SenderID  string
	CreatedAt int64
	Delivered bool
	Type      string // text | image | video

	// Optional content fields; which ones are meaningful depends on Type,
	// but absence is never rejected.
	Content      string
	Caption      string
	ImageURL     string
	VideoURL     string
	ThumbnailURL string
	Duration     int64

	// UpdatedAt defaults to persistence time when the feed omits it.
	UpdatedAt int64
}

// DialogCount is a per-dialog message count for one sender.
type DialogCount struct {
	DialogID string
	Count    int64
}
