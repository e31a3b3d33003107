package service

import (
	"context"
	"sync"
	"time"

	"optionsync/internal/domain"
	"optionsync/internal/realtime"

	"go.uber.org/zap"
)

const summaryRefreshTimeout = 10 * time.Second

// RealtimeBridge feeds events of the mounted post's channel into the store
// and the post summary
type RealtimeBridge struct {
	postUUID string
	store    *OptionStore
	summary  *PostSummaryState
	hub      *realtime.Hub
	logger   *zap.Logger

	mu         sync.Mutex
	membership *realtime.Membership
	ctx        context.Context
	cancel     context.CancelFunc
	refreshes  sync.WaitGroup
}

// NewRealtimeBridge creates a bridge for postUUID; it does nothing until Mount
func NewRealtimeBridge(postUUID string, store *OptionStore, summary *PostSummaryState, hub *realtime.Hub, logger *zap.Logger) *RealtimeBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RealtimeBridge{
		postUUID: postUUID,
		store:    store,
		summary:  summary,
		hub:      hub,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Mount joins the post channel. Mounting twice keeps one membership.
func (b *RealtimeBridge) Mount(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		b.ctx, b.cancel = context.WithCancel(context.Background())
	}
	if b.membership != nil || b.hub == nil {
		return nil
	}
	m, err := b.hub.Join(ctx, b.postUUID, b.HandleEvent)
	if err != nil {
		return err
	}
	b.membership = m
	return nil
}

// Unmount leaves the post channel, cancels pending summary refreshes and
// waits for them to return
func (b *RealtimeBridge) Unmount() {
	b.mu.Lock()
	m := b.membership
	b.membership = nil
	b.cancel()
	b.mu.Unlock()
	m.Leave()
	b.refreshes.Wait()
}

// HandleEvent applies one channel event. Events of other posts are dropped.
func (b *RealtimeBridge) HandleEvent(event domain.Event) {
	if event.PostUUID != b.postUUID {
		b.logger.Debug("Dropping event for another post",
			zap.String("post_uuid", b.postUUID),
			zap.String("event_post_uuid", event.PostUUID),
			zap.String("kind", string(event.Kind)))
		return
	}

	switch event.Kind {
	case domain.EventOptionCreatedOrUpdated:
		if event.Option == nil {
			b.logger.Warn("Option event without option", zap.String("post_uuid", b.postUUID))
			return
		}
		b.store.ApplyRemote(*event.Option)

	case domain.EventOptionDeleted:
		if b.store.Remove(event.OptionID) {
			b.logger.Debug("Option removed by realtime event",
				zap.String("post_uuid", b.postUUID),
				zap.Int64("option_id", event.OptionID))
		}
		b.startSummaryRefresh()

	case domain.EventPostUpdated:
		if event.Post == nil {
			b.logger.Warn("Post event without post", zap.String("post_uuid", b.postUUID))
			return
		}
		b.summary.Apply(*event.Post)

	default:
		b.logger.Warn("Unknown realtime event kind",
			zap.String("post_uuid", b.postUUID),
			zap.String("kind", string(event.Kind)))
	}
}

func (b *RealtimeBridge) startSummaryRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		return
	}
	b.refreshes.Add(1)
	go b.refreshSummary(b.ctx)
}

func (b *RealtimeBridge) refreshSummary(parent context.Context) {
	defer b.refreshes.Done()
	ctx, cancel := context.WithTimeout(parent, summaryRefreshTimeout)
	defer cancel()
	// Refresh logs its own failures
	_, _ = b.summary.Refresh(ctx)
}
