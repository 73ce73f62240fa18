package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/glizzus/daeha/internal/media"
)

type EventKind string

const (
	EventNowPlaying   EventKind = "now_playing"
	EventQueueEnded   EventKind = "queue_ended"
	EventQueueStopped EventKind = "queue_stopped"
)

// Event is a playback transition worth recording outside the bot.
type Event struct {
	Kind      EventKind
	SessionID string
	GuildID   string
	// Track is empty for queue teardown events.
	Track media.Track
	At    time.Time
}

// EventSink receives playback events. Publish failures are logged and never
// affect playback.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// LogSink writes events to the default slog logger.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, event Event) error {
	slog.DebugContext(
		ctx,
		"Playback event",
		slog.String("kind", string(event.Kind)),
		slog.String("sessionID", event.SessionID),
		slog.String("guildID", event.GuildID),
		slog.String("title", event.Track.Title),
	)
	return nil
}

var _ EventSink = LogSink{}
