package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/daeha/internal/generator"
	"github.com/glizzus/daeha/internal/media"
)

const DefaultStreamTimeout = 30 * time.Second

type Config struct {
	Transport Transport
	Streamer  Streamer
	Notifier  Notifier

	// Events defaults to LogSink.
	Events EventSink
	// IDs generates queue session IDs and defaults to UUIDv4.
	IDs generator.Generator[string]
	// StreamTimeout bounds opening a single stream.
	StreamTimeout time.Duration
}

// Controller runs the playback state machine for every guild.
type Controller struct {
	store     *Store
	transport Transport
	streamer  Streamer
	notifier  Notifier
	events    EventSink
	ids       generator.Generator[string]

	streamTimeout time.Duration
	now           func() time.Time

	// inflight counts end events that have fired but not been handled.
	inflight sync.WaitGroup
}

func NewController(store *Store, cfg Config) *Controller {
	c := &Controller{
		store:         store,
		transport:     cfg.Transport,
		streamer:      cfg.Streamer,
		notifier:      cfg.Notifier,
		events:        cfg.Events,
		ids:           cfg.IDs,
		streamTimeout: cfg.StreamTimeout,
		now:           time.Now,
	}
	if c.events == nil {
		c.events = LogSink{}
	}
	if c.ids == nil {
		c.ids = &generator.UUIDV4Generator{}
	}
	if c.streamTimeout <= 0 {
		c.streamTimeout = DefaultStreamTimeout
	}
	return c
}

// StartOrEnqueue plays req.Track right away when the guild has no queue,
// joining req.VoiceChannelID to do so. Otherwise the track is appended to the
// pending tracks and playback is left alone.
func (c *Controller) StartOrEnqueue(ctx context.Context, req Request) (Outcome, error) {
	unlock := c.store.Lock(req.GuildID)
	defer unlock()

	q, created, err := c.store.CreateIfAbsent(req.GuildID, func() (*Queue, error) {
		return c.open(ctx, req)
	})
	if err != nil {
		return Outcome{}, err
	}

	if !created {
		position := q.enqueue(req.Track)
		slog.InfoContext(ctx, "Track queued", "guildID", q.GuildID, "sessionID", q.ID, "title", req.Track.Title, "position", position)
		return Outcome{SessionID: q.ID, Position: position}, nil
	}

	if err := c.play(ctx, q, req.Track); err != nil {
		c.teardown(ctx, q, EventQueueEnded)
		return Outcome{}, err
	}
	return Outcome{Started: true, SessionID: q.ID}, nil
}

func (c *Controller) open(ctx context.Context, req Request) (*Queue, error) {
	id, err := c.ids.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	conn, err := c.transport.Join(ctx, req.GuildID, req.VoiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	slog.InfoContext(ctx, "Joined voice channel", "guildID", req.GuildID, "channelID", req.VoiceChannelID, "sessionID", id)

	return &Queue{
		ID:            id,
		GuildID:       req.GuildID,
		TextChannelID: req.TextChannelID,
		conn:          conn,
		render:        conn.Subscribe(),
	}, nil
}

// play hands track to the queue's render session. Caller holds the guild lock.
func (c *Controller) play(ctx context.Context, q *Queue, track media.Track) error {
	streamCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	frames, err := c.streamer.Stream(streamCtx, track)
	if err != nil {
		return fmt.Errorf("failed to open stream for %q: %w", track.Title, err)
	}

	q.gen++
	if err := q.render.Play(frames, c.endHandler(q, q.gen)); err != nil {
		frames.Close()
		return fmt.Errorf("failed to start rendering %q: %w", track.Title, err)
	}
	q.current = &track

	slog.InfoContext(ctx, "Now playing", "guildID", q.GuildID, "sessionID", q.ID, "title", track.Title, "url", track.URL)
	if err := c.notifier.NowPlaying(q.TextChannelID, track); err != nil {
		slog.WarnContext(ctx, "Failed to send now playing notification", "guildID", q.GuildID, "error", err)
	}
	c.publish(ctx, q, EventNowPlaying, track)
	return nil
}

// endHandler is the render session callback for generation gen of q.
// Handling happens on its own goroutine so a render session may fire it from
// inside Stop while the guild lock is held.
func (c *Controller) endHandler(q *Queue, gen uint64) func(error) {
	return func(endErr error) {
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			c.handleEnd(q, gen, endErr)
		}()
	}
}

func (c *Controller) handleEnd(q *Queue, gen uint64, endErr error) {
	ctx := context.Background()

	unlock := c.store.Lock(q.GuildID)
	defer unlock()

	if current, ok := c.store.Get(q.GuildID); !ok || current != q || q.gen != gen {
		slog.DebugContext(ctx, "Ignoring stale end event", "guildID", q.GuildID, "sessionID", q.ID)
		return
	}
	if endErr != nil {
		slog.WarnContext(ctx, "Render session ended with error", "guildID", q.GuildID, "sessionID", q.ID, "error", endErr)
	}
	c.advance(ctx, q)
}

// advance moves q to its next playable pending track, or tears it down when
// none is left. Caller holds the guild lock.
func (c *Controller) advance(ctx context.Context, q *Queue) {
	q.current = nil
	for {
		track, ok := q.pop()
		if !ok {
			c.teardown(ctx, q, EventQueueEnded)
			return
		}

		err := c.play(ctx, q, track)
		if err == nil {
			return
		}
		slog.ErrorContext(ctx, "Skipping unplayable track", "guildID", q.GuildID, "sessionID", q.ID, "title", track.Title, "error", err)
		if nerr := c.notifier.PlaybackFailed(q.TextChannelID, track, err); nerr != nil {
			slog.WarnContext(ctx, "Failed to send playback failure notification", "guildID", q.GuildID, "error", nerr)
		}
	}
}

// teardown removes q and releases its voice connection. Caller holds the
// guild lock and nothing may be rendering.
func (c *Controller) teardown(ctx context.Context, q *Queue, kind EventKind) {
	c.store.RemoveQueue(q)
	c.release(ctx, q)
	c.publish(ctx, q, kind, media.Track{})
	slog.InfoContext(ctx, "Queue torn down", "guildID", q.GuildID, "sessionID", q.ID, "reason", string(kind))
}

func (c *Controller) release(ctx context.Context, q *Queue) {
	if err := q.conn.Destroy(); err != nil {
		slog.WarnContext(ctx, "Failed to destroy voice connection", "guildID", q.GuildID, "sessionID", q.ID, "error", err)
	}
}

// Skip ends the current track early. The guild then moves on exactly as if
// the track had ended by itself.
func (c *Controller) Skip(ctx context.Context, guildID string) error {
	unlock := c.store.Lock(guildID)
	defer unlock()

	q, ok := c.store.Get(guildID)
	if !ok {
		return ErrNothingToSkip
	}

	if q.render.Playing() {
		slog.InfoContext(ctx, "Skipping track", "guildID", guildID, "sessionID", q.ID)
		q.render.Stop()
		return nil
	}
	if len(q.pending) == 0 {
		return ErrNothingToSkip
	}

	// Nothing is rendering but tracks are waiting: move on directly and
	// invalidate any end event that has not been handled yet.
	q.gen++
	c.advance(ctx, q)
	return nil
}

// Stop ends playback, drops every pending track and leaves the voice channel.
func (c *Controller) Stop(ctx context.Context, guildID string) error {
	unlock := c.store.Lock(guildID)
	defer unlock()

	q, ok := c.store.Get(guildID)
	if !ok || (!q.render.Playing() && len(q.pending) == 0) {
		return ErrNothingToStop
	}

	c.shutdown(ctx, q)
	return nil
}

func (c *Controller) shutdown(ctx context.Context, q *Queue) {
	c.store.RemoveQueue(q)
	q.render.Stop()
	c.release(ctx, q)
	c.publish(ctx, q, EventQueueStopped, media.Track{})
	slog.InfoContext(ctx, "Queue stopped", "guildID", q.GuildID, "sessionID", q.ID, "dropped", len(q.pending))
}

// StopAll stops every guild's queue, whatever its state.
func (c *Controller) StopAll(ctx context.Context) {
	for _, guildID := range c.store.GuildIDs() {
		unlock := c.store.Lock(guildID)
		if q, ok := c.store.Get(guildID); ok {
			c.shutdown(ctx, q)
		}
		unlock()
	}
}

// Wait blocks until every end event fired so far has been handled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Pending lists the guild's waiting tracks. ok is false when the guild has no
// queue.
func (c *Controller) Pending(guildID string) (tracks []media.Track, ok bool) {
	unlock := c.store.Lock(guildID)
	defer unlock()

	q, ok := c.store.Get(guildID)
	if !ok {
		return nil, false
	}
	return q.Pending(), true
}

// NowPlaying returns the track currently rendering in the guild.
func (c *Controller) NowPlaying(guildID string) (media.Track, bool) {
	unlock := c.store.Lock(guildID)
	defer unlock()

	q, ok := c.store.Get(guildID)
	if !ok || q.current == nil || !q.render.Playing() {
		return media.Track{}, false
	}
	return *q.current, true
}

func (c *Controller) publish(ctx context.Context, q *Queue, kind EventKind, track media.Track) {
	event := Event{
		Kind:      kind,
		SessionID: q.ID,
		GuildID:   q.GuildID,
		Track:     track,
		At:        c.now().UTC(),
	}
	if err := c.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish playback event", "kind", string(kind), "guildID", q.GuildID, "error", err)
	}
}
