// Package ingest is the dedup/ordering core of the daemon. It accepts
// validated feed messages, guarantees at-most-one persisted copy per id
// within the cache horizon, records ordering observations and persists.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feedsink/feedsink/internal/bus"
	"github.com/feedsink/feedsink/internal/dedup"
	"github.com/feedsink/feedsink/internal/store"
)

// Checker is invoked after each successful persist to scan the dialog's
// timeline for suspected gaps. *consistency.Monitor implements it.
type Checker interface {
	Check(ctx context.Context, dialogID string) error
}

// Pipeline orchestrates validation-adjacent bookkeeping for one inbound
// message: dedup, watermark update, persistence and the consistency check.
// It subscribes to "feed.message" events on the bus, so the connector never
// calls it directly.
type Pipeline struct {
	store   store.MessageStore
	cache   *dedup.Cache
	marks   *dedup.Watermarks
	checker Checker
	bus     *bus.Bus
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(st store.MessageStore, cache *dedup.Cache, marks *dedup.Watermarks, checker Checker, b *bus.Bus, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:   st,
		cache:   cache,
		marks:   marks,
		checker: checker,
		bus:     b,
		logger:  logger,
	}
}

// Start subscribes to inbound feed messages on the bus.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	ch, unsub := p.bus.Subscribe(bus.KindFeedMessage, 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				msg, ok := evt.Payload.(*store.Message)
				if !ok {
					continue
				}
				p.Ingest(ctx, msg)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the pipeline.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Ingest processes one validated message. Duplicates within the cache TTL
// are discarded; out-of-order timestamps are advisory only. Persistence is
// fire-and-forget: on failure the message is dropped without retry and the
// cache/watermark updates are not rolled back, so the id stays "seen".
func (p *Pipeline) Ingest(ctx context.Context, msg *store.Message) {
	if p.cache.Contains(msg.ID) {
		p.logger.Warn("duplicate message discarded",
			zap.String("msg_id", msg.ID),
			zap.String("dialog_id", msg.DialogID))
		return
	}

	last := p.marks.Get(msg.DialogID)
	if last > msg.CreatedAt {
		p.logger.Warn("message out of order",
			zap.String("msg_id", msg.ID),
			zap.String("dialog_id", msg.DialogID),
			zap.Int64("created_at", msg.CreatedAt),
			zap.Int64("last_created_at", last))
	}
	p.marks.Set(msg.DialogID, msg.CreatedAt)

	p.cache.Add(msg)

	if err := p.store.InsertMessage(ctx, msg); err != nil {
		p.logger.Error("failed to persist message",
			zap.Error(err),
			zap.String("msg_id", msg.ID),
			zap.String("dialog_id", msg.DialogID))
		return
	}
	p.logger.Info("message stored",
		zap.String("msg_id", msg.ID),
		zap.String("dialog_id", msg.DialogID))

	if err := p.checker.Check(ctx, msg.DialogID); err != nil {
		p.logger.Warn("consistency check failed",
			zap.Error(err),
			zap.String("dialog_id", msg.DialogID))
	}

	p.bus.Publish(bus.Event{
		Kind:      bus.KindMessageStored,
		Timestamp: time.Now(),
		Payload: map[string]string{
			"dialog_id": msg.DialogID,
			"msg_id":    msg.ID,
		},
	})
}
