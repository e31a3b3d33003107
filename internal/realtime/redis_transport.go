package realtime

import (
	"context"
	"sync"

	"optionsync/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// RedisTransport carries post channels over Redis Pub/Sub
type RedisTransport struct {
	client *redis.Client
}

// NewRedisTransport creates a transport on client
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

// Subscribe opens the Pub/Sub channel of postUUID
func (t *RedisTransport) Subscribe(ctx context.Context, postUUID string) (Subscription, error) {
	ps, err := t.client.Subscribe(ctx, t.client.KeyBuilder.KeyPostChannel(postUUID))
	if err != nil {
		return nil, err
	}
	return newRedisSubscription(ps), nil
}

// Publish sends payload on the Pub/Sub channel of postUUID
func (t *RedisTransport) Publish(ctx context.Context, postUUID string, payload []byte) error {
	_, err := t.client.Publish(ctx, t.client.KeyBuilder.KeyPostChannel(postUUID), payload)
	return err
}

type redisSubscription struct {
	ps        *goredis.PubSub
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newRedisSubscription(ps *goredis.PubSub) *redisSubscription {
	s := &redisSubscription{
		ps:   ps,
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	in := s.ps.Channel()
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.out <- []byte(msg.Payload):
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
