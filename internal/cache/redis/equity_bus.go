package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

const (
	// equityChannel carries live samples to in-process and external
	// subscribers via Pub/Sub.
	equityChannel = "equity:samples"
	// equityStream keeps a capped durable history via XADD MAXLEN ~.
	equityStream = "equity:stream"

	streamMaxLen int64 = 10000
)

// EquityBus implements domain.EquityBus on Redis Pub/Sub plus a capped
// stream.
type EquityBus struct {
	rdb *redis.Client
}

var _ domain.EquityBus = (*EquityBus)(nil)

// NewEquityBus creates an EquityBus backed by the given Client.
func NewEquityBus(c *Client) *EquityBus {
	return &EquityBus{rdb: c.Underlying()}
}

// Publish fans one sample out to the Pub/Sub channel and appends it to the
// capped stream.
func (b *EquityBus) Publish(ctx context.Context, instance int, asset string, sample domain.EquitySample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("redis: marshal sample: %w", err)
	}

	if err := b.rdb.Publish(ctx, equityChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", equityChannel, err)
	}

	args := &redis.XAddArgs{
		Stream: equityStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"instance": instance,
			"asset":    asset,
			"payload":  payload,
		},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", equityStream, err)
	}
	return nil
}

// Subscribe delivers samples to fn until the context is cancelled. Payloads
// that fail to decode are dropped.
func (b *EquityBus) Subscribe(ctx context.Context, fn func(domain.EquitySample)) error {
	pubsub := b.rdb.Subscribe(ctx, equityChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe %s: %w", equityChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var sample domain.EquitySample
			if err := json.Unmarshal([]byte(msg.Payload), &sample); err != nil {
				continue
			}
			fn(sample)
		}
	}
}
