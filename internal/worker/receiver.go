package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glizzus/daeha/internal/player"
)

// Delivery is one event read from the stream, identified by its entry ID.
type Delivery struct {
	MessageID string
	Event     player.Event
}

// RedisEventReceiver reads playback events as a member of a consumer group.
type RedisEventReceiver struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string

	// Block is how long one Receive waits for new entries.
	Block time.Duration
	Count int64
	// MinIdle is how long an entry stays pending before Receive claims it
	// again. Zero disables reclaiming.
	MinIdle time.Duration

	claimStart string
}

// NewRedisEventReceiver creates the consumer group, and the stream with it,
// unless they already exist.
func NewRedisEventReceiver(ctx context.Context, client *redis.Client, stream, group, consumer string) (*RedisEventReceiver, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}

	return &RedisEventReceiver{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		Block:      5 * time.Second,
		Count:      10,
		MinIdle:    time.Minute,
		claimStart: "0-0",
	}, nil
}

// Receive returns the next batch of events, or none when Block elapses.
// Entries left pending for longer than MinIdle, by this or any other
// consumer, are claimed and returned before new ones. Malformed entries are
// acknowledged and dropped.
func (r *RedisEventReceiver) Receive(ctx context.Context) ([]Delivery, error) {
	if r.MinIdle > 0 {
		deliveries, err := r.reclaim(ctx)
		if err != nil || len(deliveries) > 0 {
			return deliveries, err
		}
	}

	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    r.Count,
		Block:    r.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from %s: %w", r.stream, err)
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return r.parse(ctx, messages)
}

// reclaim takes over one page of idle pending entries. The scan resumes
// where the previous call stopped.
func (r *RedisEventReceiver) reclaim(ctx context.Context) ([]Delivery, error) {
	messages, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.stream,
		Group:    r.group,
		Consumer: r.consumer,
		MinIdle:  r.MinIdle,
		Start:    r.claimStart,
		Count:    r.Count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending entries from %s: %w", r.stream, err)
	}
	r.claimStart = next

	if len(messages) > 0 {
		slog.InfoContext(ctx, "Claimed pending playback events", "count", len(messages))
	}
	return r.parse(ctx, messages)
}

func (r *RedisEventReceiver) parse(ctx context.Context, messages []redis.XMessage) ([]Delivery, error) {
	var deliveries []Delivery
	var malformed []string
	for _, msg := range messages {
		event, err := ParseEvent(msg.Values)
		if err != nil {
			slog.WarnContext(ctx, "Dropping malformed playback event", "messageID", msg.ID, "error", err)
			malformed = append(malformed, msg.ID)
			continue
		}
		deliveries = append(deliveries, Delivery{MessageID: msg.ID, Event: event})
	}

	if err := r.Ack(ctx, malformed...); err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *RedisEventReceiver) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, r.stream, r.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to ack %d messages: %w", len(messageIDs), err)
	}
	return nil
}
