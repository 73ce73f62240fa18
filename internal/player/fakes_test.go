package player_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/player"
)

type fakeTransport struct {
	mu    sync.Mutex
	joins []string
	conns []*fakeConnection
	err   error
}

func (f *fakeTransport) Join(_ context.Context, guildID, channelID string) (player.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.joins = append(f.joins, guildID+"/"+channelID)
	conn := &fakeConnection{render: &fakeRender{}}
	f.conns = append(f.conns, conn)
	return conn, nil
}

func (f *fakeTransport) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.joins)
}

func (f *fakeTransport) conn(i int) *fakeConnection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[i]
}

type fakeConnection struct {
	render *fakeRender

	mu        sync.Mutex
	destroyed int
}

func (c *fakeConnection) Subscribe() player.RenderSession { return c.render }

func (c *fakeConnection) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed++
	return nil
}

func (c *fakeConnection) destroyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// fakeRender fires onEnd synchronously, from Stop or from finish.
type fakeRender struct {
	mu      sync.Mutex
	playing bool
	onEnd   func(error)
	ends    []func(error)
}

func (r *fakeRender) Play(frames io.ReadCloser, onEnd func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing {
		return player.ErrRendering
	}
	frames.Close()
	r.playing = true
	r.onEnd = onEnd
	r.ends = append(r.ends, onEnd)
	return nil
}

func (r *fakeRender) Stop() { r.finish(nil) }

func (r *fakeRender) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// finish ends the current stream as if it ran out.
func (r *fakeRender) finish(err error) {
	r.mu.Lock()
	if !r.playing {
		r.mu.Unlock()
		return
	}
	r.playing = false
	onEnd := r.onEnd
	r.onEnd = nil
	r.mu.Unlock()
	onEnd(err)
}

// drop goes idle without reporting the end, as if the stream vanished.
func (r *fakeRender) drop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.onEnd = nil
}

// endFor returns the onEnd callback handed to the i-th Play call.
func (r *fakeRender) endFor(i int) func(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ends[i]
}

type fakeStreamer struct {
	mu     sync.Mutex
	opened []string
	fail   map[string]bool
}

func (s *fakeStreamer) Stream(_ context.Context, track media.Track) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[track.Title] {
		return nil, &media.UpstreamError{Op: "stream", Err: errors.New("boom")}
	}
	s.opened = append(s.opened, track.Title)
	return io.NopCloser(strings.NewReader("")), nil
}

func (s *fakeStreamer) openedTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.opened...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	playing []string
	failed  []string
}

func (n *fakeNotifier) NowPlaying(channelID string, track media.Track) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = append(n.playing, channelID+":"+track.Title)
	return nil
}

func (n *fakeNotifier) PlaybackFailed(channelID string, track media.Track, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, channelID+":"+track.Title)
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []player.Event
}

func (s *fakeSink) Publish(_ context.Context, event player.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSink) kinds() []player.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]player.EventKind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
