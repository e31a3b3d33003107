package realtime

import (
	"context"
	"fmt"
	"sync"

	"optionsync/internal/domain"
	"optionsync/pkg/logger"

	"go.uber.org/zap"
)

// Subscription is an open transport subscription to one post channel
type Subscription interface {
	// Messages delivers raw payloads; it is closed when the subscription ends
	Messages() <-chan []byte
	Close() error
}

// Transport carries post channel messages between processes
type Transport interface {
	Subscribe(ctx context.Context, postUUID string) (Subscription, error)
	Publish(ctx context.Context, postUUID string, payload []byte) error
}

// Handler receives decoded events of a joined post. It runs on the
// dispatch goroutine and must not call Membership.Leave.
type Handler func(domain.Event)

// Hub shares one transport subscription per post among every view of that
// post in the process. The subscription is opened on the first Join and
// closed when the last member leaves.
type Hub struct {
	transport Transport
	logger    *logger.Logger

	mu     sync.Mutex
	nextID uint64
	posts  map[string]*postChannel
}

type postChannel struct {
	sub     Subscription
	members map[uint64]Handler
	done    chan struct{}
}

// NewHub creates a hub over transport. A nil transport disables realtime and
// joins become no-ops.
func NewHub(transport Transport, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		transport: transport,
		logger:    log.Named("realtime"),
		posts:     make(map[string]*postChannel),
	}
}

// Enabled reports whether the hub has a transport
func (h *Hub) Enabled() bool {
	return h.transport != nil
}

// Membership is one Join; Leave releases it
type Membership struct {
	hub      *Hub
	postUUID string
	id       uint64
	once     sync.Once
}

// PostUUID returns the joined post
func (m *Membership) PostUUID() string {
	return m.postUUID
}

// Leave stops delivery to this member. Calling it again does nothing.
func (m *Membership) Leave() {
	if m == nil || m.hub == nil {
		return
	}
	m.once.Do(func() { m.hub.leave(m.postUUID, m.id) })
}

// Join registers handler for events of postUUID
func (h *Hub) Join(ctx context.Context, postUUID string, handler Handler) (*Membership, error) {
	if h.transport == nil {
		return &Membership{postUUID: postUUID}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	if ch, ok := h.posts[postUUID]; ok {
		ch.members[id] = handler
		h.logger.Debug("Joined shared post channel",
			zap.String("post_uuid", postUUID),
			zap.Int("members", len(ch.members)))
		return &Membership{hub: h, postUUID: postUUID, id: id}, nil
	}

	sub, err := h.transport.Subscribe(ctx, postUUID)
	if err != nil {
		h.logger.Warn("Failed to subscribe to post channel",
			zap.String("post_uuid", postUUID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to join post channel: %w", err)
	}

	ch := &postChannel{
		sub:     sub,
		members: map[uint64]Handler{id: handler},
		done:    make(chan struct{}),
	}
	h.posts[postUUID] = ch
	go h.dispatch(postUUID, ch)

	h.logger.Info("Subscribed to post channel", zap.String("post_uuid", postUUID))
	return &Membership{hub: h, postUUID: postUUID, id: id}, nil
}

// Members returns how many views currently share the channel of postUUID
func (h *Hub) Members(postUUID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.posts[postUUID]; ok {
		return len(ch.members)
	}
	return 0
}

// Publish encodes event and sends it on its post channel
func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	if h.transport == nil {
		return nil
	}
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	if err := h.transport.Publish(ctx, event.PostUUID, payload); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind, err)
	}
	return nil
}

// Close tears down every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	posts := h.posts
	h.posts = make(map[string]*postChannel)
	h.mu.Unlock()

	for postUUID, ch := range posts {
		h.closeChannel(postUUID, ch)
	}
}

func (h *Hub) leave(postUUID string, id uint64) {
	h.mu.Lock()
	ch, ok := h.posts[postUUID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(ch.members, id)
	if len(ch.members) > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.posts, postUUID)
	h.mu.Unlock()

	h.closeChannel(postUUID, ch)
}

func (h *Hub) closeChannel(postUUID string, ch *postChannel) {
	if err := ch.sub.Close(); err != nil {
		h.logger.Warn("Failed to close post channel subscription",
			zap.String("post_uuid", postUUID),
			zap.Error(err))
	}
	<-ch.done
	h.logger.Info("Unsubscribed from post channel", zap.String("post_uuid", postUUID))
}

func (h *Hub) dispatch(postUUID string, ch *postChannel) {
	defer close(ch.done)
	for payload := range ch.sub.Messages() {
		event, err := Decode(payload)
		if err != nil {
			h.logger.Warn("Dropping undecodable realtime event",
				zap.String("post_uuid", postUUID),
				zap.Int("bytes", len(payload)),
				zap.Error(err))
			continue
		}

		h.mu.Lock()
		handlers := make([]Handler, 0, len(ch.members))
		for _, handler := range ch.members {
			handlers = append(handlers, handler)
		}
		h.mu.Unlock()

		for _, handler := range handlers {
			handler(event)
		}
	}
}
