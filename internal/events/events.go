// Package events fans pipeline state changes out over Redis pub/sub so that
// every API process can forward them to its websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/model"
)

const channelPrefix = "devagent:pipeline:"

// Channel is the pub/sub channel of one pipeline
func Channel(pipelineID string) string {
	return channelPrefix + pipelineID
}

// Publisher emits pipeline events. Publishing is best effort: failures are
// logged and never fail the state change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, evt model.PipelineEvent)
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, model.PipelineEvent) {}

// RedisPublisher publishes events on per-pipeline channels
type RedisPublisher struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, log: log.Named("events")}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt model.PipelineEvent) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	evt.Type = model.WSMessageTypeEvent
	data, err := json.Marshal(evt)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, Channel(evt.PipelineID), data).Err(); err != nil {
		p.log.Warn("publish event failed",
			zap.String("pipeline_id", evt.PipelineID),
			zap.String("kind", evt.Kind),
			zap.Error(err))
	}
}

// Broadcaster receives relayed events, typically the websocket hub
type Broadcaster interface {
	Broadcast(pipelineID string, data []byte)
}

// Relay forwards every pipeline channel to a Broadcaster
type Relay struct {
	rdb *redis.Client
	out Broadcaster
	log *zap.Logger
}

func NewRelay(rdb *redis.Client, out Broadcaster, log *zap.Logger) *Relay {
	return &Relay{rdb: rdb, out: out, log: log.Named("relay")}
}

// Run blocks until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("relaying pipeline events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			id := strings.TrimPrefix(msg.Channel, channelPrefix)
			r.out.Broadcast(id, []byte(msg.Payload))
		}
	}
}
