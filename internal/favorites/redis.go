package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const changesSuffix = ":changes"

type changeMessage struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// RedisBackend keeps the value under its key and announces every write on
// "<key>:changes". Announcements carry an origin id so a backend can skip its
// own writes.
type RedisBackend struct {
	client *redis.Client
	origin string
	logger *zap.Logger
}

func NewRedisBackend(client *redis.Client, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{client: client, origin: uuid.NewString(), logger: logger}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, err
}

func (b *RedisBackend) Put(ctx context.Context, key string, value []byte) error {
	msg, err := json.Marshal(changeMessage{Key: key, Origin: b.origin})
	if err != nil {
		return err
	}
	_, err = b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, value, 0)
		p.Publish(ctx, key+changesSuffix, msg)
		return nil
	})
	return err
}

// changedKey decodes an announcement, returning "" for our own writes and
// malformed payloads.
func (b *RedisBackend) changedKey(channel, payload string) string {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.logger.Debug("ignoring malformed change message", zap.String("channel", channel), zap.Error(err))
		return ""
	}
	if msg.Origin == b.origin {
		return ""
	}
	if msg.Key == "" {
		msg.Key = strings.TrimSuffix(channel, changesSuffix)
	}
	return msg.Key
}

func (b *RedisBackend) Watch(ctx context.Context, fn func(key string)) error {
	sub := b.client.PSubscribe(ctx, "*"+changesSuffix)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if key := b.changedKey(m.Channel, m.Payload); key != "" {
				fn(key)
			}
		}
	}
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
