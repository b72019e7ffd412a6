// Package query serves paginated reads of dialogs and their messages.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/feedsink/feedsink/internal/store"
)

// Pagination defaults applied when the caller passes zero.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// ErrBadPagination is returned when limit or offset is negative.
var ErrBadPagination = errors.New("limit and offset must be non-negative")

// DialogSummary is one entry in a user's dialog listing. Participants holds
// only the querying user: the model does not track a dialog's other members.
type DialogSummary struct {
	DialogID     string
	LastMessage  *store.Message
	Participants []string
}

// DialogService answers dialog listing and message history queries.
type DialogService struct {
	store store.MessageStore
}

// NewDialogService creates a dialog query service backed by the store.
func NewDialogService(st store.MessageStore) *DialogService {
	return &DialogService{store: st}
}

// UserDialogs lists the distinct dialogs the user has sent into, each with
// its most recent message.
func (s *DialogService) UserDialogs(ctx context.Context, userID string, limit, offset int) ([]DialogSummary, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	dialogs, err := s.store.DistinctDialogsBySender(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list dialogs: %w", err)
	}

	summaries := make([]DialogSummary, 0, len(dialogs))
	for _, dialogID := range dialogs {
		last, err := s.store.LatestMessage(ctx, dialogID)
		if err != nil {
			return nil, fmt.Errorf("latest message for %s: %w", dialogID, err)
		}
		summaries = append(summaries, DialogSummary{
			DialogID:     dialogID,
			LastMessage:  last,
			Participants: []string{userID},
		})
	}
	return summaries, nil
}

// DialogMessages returns a dialog's messages ordered by createdAt ascending.
func (s *DialogService) DialogMessages(ctx context.Context, dialogID string, limit, offset int) ([]store.Message, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.ListByDialog(ctx, dialogID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func normalizePage(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, ErrBadPagination
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return limit, offset, nil
}
