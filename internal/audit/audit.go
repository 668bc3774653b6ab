// Package audit implements an optional, strictly ephemeral security-audit
// trail for external-client writes to the fieldbus gateway. Spec.md §6
// names no persisted state; publishing a fire-and-forget event to a pub/sub
// channel is not persistence — nothing is ever read back by this process,
// and a subscriber that never attaches loses every event. Grounded on the
// narrow-interface style of ratelimiter/persistence/redis.go (RedisEvaler),
// generalized from an idempotent commit script to a plain Publish call.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher abstracts the minimal surface needed from a pub/sub client,
// matching github.com/redis/go-redis/v9's Cmdable.Publish signature so a
// *redis.Client satisfies it directly.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Sink receives a description of every external-client register-bank write.
// PublishWrite must never block the caller for long: implementations that
// wrap network I/O should apply their own short timeout.
type Sink interface {
	PublishWrite(kind string, addr, n int)
}

// NoopSink discards every event; the default when no audit channel is
// configured.
type NoopSink struct{}

// PublishWrite implements Sink by doing nothing.
func (NoopSink) PublishWrite(kind string, addr, n int) {}

// RedisSink publishes a one-line JSON-ish event to a fixed channel for every
// external write. It never persists anything: there is no SET, no list
// push, only PUBLISH, which is discarded by the broker if nobody is
// subscribed.
type RedisSink struct {
	client  Publisher
	channel string
	timeout time.Duration
	log     zerolog.Logger
}

// NewRedisSink constructs a RedisSink publishing to channel, using a
// short per-call timeout so a slow or unreachable broker can never stall
// the gateway handler that triggered the audit event.
func NewRedisSink(client Publisher, channel string, log zerolog.Logger) *RedisSink {
	return &RedisSink{client: client, channel: channel, timeout: 200 * time.Millisecond, log: log}
}

// PublishWrite implements Sink.
func (s *RedisSink) PublishWrite(kind string, addr, n int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	msg := fmt.Sprintf(`{"kind":%q,"addr":%d,"count":%d,"ts":%d}`, kind, addr, n, time.Now().Unix())
	if err := s.client.Publish(ctx, s.channel, msg).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", s.channel).Msg("audit publish failed")
	}
}
