package player

import (
	"context"
	"io"

	"github.com/glizzus/daeha/internal/media"
)

// Transport joins voice channels.
type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Connection is a live voice channel connection.
type Connection interface {
	// Subscribe returns the render session bound to this connection.
	// It is called once per connection and the session is reused for every
	// track.
	Subscribe() RenderSession
	Destroy() error
}

// RenderSession plays one stream at a time into a voice connection.
type RenderSession interface {
	// Play starts rendering frames. onEnd is called exactly once, when the
	// stream is exhausted or Stop is called. Play fails if a stream is
	// already rendering.
	Play(frames io.ReadCloser, onEnd func(error)) error
	// Stop ends the current stream, which fires its onEnd. It is a no-op
	// when nothing is rendering.
	Stop()
	Playing() bool
}

// Streamer opens the audio of a track as length-prefixed Opus frames.
type Streamer interface {
	Stream(ctx context.Context, track media.Track) (io.ReadCloser, error)
}

// Notifier tells a guild's text channel what the player is doing.
type Notifier interface {
	NowPlaying(channelID string, track media.Track) error
	PlaybackFailed(channelID string, track media.Track, err error) error
}
