package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/player"
)

// EventValues is the stream entry written for event.
func EventValues(event player.Event) map[string]any {
	return map[string]any{
		"kind":      string(event.Kind),
		"sessionID": event.SessionID,
		"guildID":   event.GuildID,
		"title":     event.Track.Title,
		"url":       event.Track.URL,
		"at":        event.At.UTC().Format(time.RFC3339Nano),
	}
}

// ParseEvent reads a stream entry written by EventValues.
func ParseEvent(values map[string]any) (player.Event, error) {
	field := func(name string) (string, error) {
		raw, ok := values[name]
		if !ok {
			return "", fmt.Errorf("missing field %q", name)
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("field %q is %T, not a string", name, raw)
		}
		return s, nil
	}

	var event player.Event

	kind, err := field("kind")
	if err != nil {
		return event, err
	}
	switch player.EventKind(kind) {
	case player.EventNowPlaying, player.EventQueueEnded, player.EventQueueStopped:
		event.Kind = player.EventKind(kind)
	default:
		return event, fmt.Errorf("unknown event kind %q", kind)
	}

	if event.SessionID, err = field("sessionID"); err != nil {
		return event, err
	}
	if event.GuildID, err = field("guildID"); err != nil {
		return event, err
	}

	at, err := field("at")
	if err != nil {
		return event, err
	}
	if event.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return event, fmt.Errorf("failed to parse field \"at\": %w", err)
	}

	// Teardown events carry no track.
	title, _ := values["title"].(string)
	url, _ := values["url"].(string)
	event.Track = media.Track{Title: title, URL: url}

	if event.Kind == player.EventNowPlaying && (title == "" || url == "") {
		return event, fmt.Errorf("now playing event without a track")
	}
	return event, nil
}

// RedisEventPublisher appends playback events to a Redis stream.
type RedisEventPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisEventPublisher(client *redis.Client, stream string) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, stream: stream}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event player.Event) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: EventValues(event),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", event.Kind, p.stream, err)
	}
	return nil
}

var _ player.EventSink = (*RedisEventPublisher)(nil)
