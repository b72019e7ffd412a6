// Package analytics computes per-user aggregates over stored history and
// the consistency monitor's process-lifetime counters.
package analytics

import (
	"context"
	"fmt"
	"slices"

	"github.com/feedsink/feedsink/internal/consistency"
	"github.com/feedsink/feedsink/internal/store"
)

// DialogMissed reports the missed-message counter for one dialog.
type DialogMissed struct {
	DialogID    string
	MissedCount int64
}

// Report holds one user's aggregates.
type Report struct {
	TotalDialogs  int
	TotalMessages int64
	// MessagesPerDialog counts the user's messages per dialog they sent into.
	MessagesPerDialog []store.DialogCount
	// MedianResponseTime is the median of consecutive createdAt differences
	// across all of the user's sent messages, all dialogs combined. Zero
	// when fewer than two messages exist.
	MedianResponseTime float64
	// MissedMessagesPerDialog lists monitor counters for the user's dialogs.
	MissedMessagesPerDialog []DialogMissed
}

// Aggregator computes user reports from the message store and the monitor.
type Aggregator struct {
	store   store.MessageStore
	monitor *consistency.Monitor
}

// NewAggregator creates an analytics aggregator.
func NewAggregator(st store.MessageStore, monitor *consistency.Monitor) *Aggregator {
	return &Aggregator{store: st, monitor: monitor}
}

// UserReport computes the full aggregate report for one user.
func (a *Aggregator) UserReport(ctx context.Context, userID string) (*Report, error) {
	dialogs, err := a.store.DistinctDialogsBySender(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("distinct dialogs: %w", err)
	}

	total, err := a.store.CountBySender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	perDialog, err := a.store.CountByDialogForSender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count per dialog: %w", err)
	}

	ts, err := a.store.SenderTimestamps(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sender timestamps: %w", err)
	}

	missedCounts := a.monitor.Counts()
	var missed []DialogMissed
	for _, dialogID := range dialogs {
		if count, ok := missedCounts[dialogID]; ok {
			missed = append(missed, DialogMissed{DialogID: dialogID, MissedCount: count})
		}
	}

	return &Report{
		TotalDialogs:            len(dialogs),
		TotalMessages:           total,
		MessagesPerDialog:       perDialog,
		MedianResponseTime:      medianResponseTime(ts),
		MissedMessagesPerDialog: missed,
	}, nil
}

// medianResponseTime takes ascending timestamps, computes the consecutive
// differences, and returns their median (average of the two middle values
// for an even count).
func medianResponseTime(ts []int64) float64 {
	if len(ts) < 2 {
		return 0
	}

	diffs := make([]int64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		diffs = append(diffs, ts[i]-ts[i-1])
	}
	slices.Sort(diffs)

	mid := len(diffs) / 2
	if len(diffs)%2 == 0 {
		return float64(diffs[mid-1]+diffs[mid]) / 2
	}
	return float64(diffs[mid])
}
