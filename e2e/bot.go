package e2e

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/daeha/internal/generator"
	"github.com/glizzus/daeha/internal/handler"
	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/opus"
	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/voice"
)

// FramesPerTrack is how many Opus frames every fake track renders.
const FramesPerTrack = 3

// Sent is a message the bot sent to a text channel.
type Sent struct {
	ChannelID string
	Content   string
	Embed     *discordgo.MessageEmbed
}

// Channel records everything sent through it.
type Channel struct {
	mu   sync.Mutex
	sent []Sent
}

func (c *Channel) record(s Sent) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, s)
	return &discordgo.Message{ChannelID: s.ChannelID, Content: s.Content}, nil
}

func (c *Channel) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.record(Sent{ChannelID: channelID, Content: content})
}

func (c *Channel) ChannelMessageSendReply(channelID, content string, _ *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.record(Sent{ChannelID: channelID, Content: content})
}

func (c *Channel) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.record(Sent{ChannelID: channelID, Embed: embed})
}

// Drain returns and forgets everything recorded so far.
func (c *Channel) Drain() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	sent := c.sent
	c.sent = nil
	return sent
}

var _ handler.Messenger = (*Channel)(nil)

// VoiceServer hands out voice connections whose frames tests read directly.
type VoiceServer struct {
	mu    sync.Mutex
	conns []*VoiceConn
}

func (v *VoiceServer) Join(_ context.Context, guildID, channelID string) (player.Connection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	frames := make(chan []byte)
	conn := &VoiceConn{
		GuildID:   guildID,
		ChannelID: channelID,
		Frames:    frames,
		renderer:  voice.NewRenderer(frames),
	}
	v.conns = append(v.conns, conn)
	return conn, nil
}

// Joins is how many connections were opened.
func (v *VoiceServer) Joins() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.conns)
}

func (v *VoiceServer) Conn(i int) *VoiceConn {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conns[i]
}

// VoiceConn is a connection backed by a real voice.Renderer.
type VoiceConn struct {
	GuildID   string
	ChannelID string
	Frames    <-chan []byte

	renderer *voice.Renderer

	mu        sync.Mutex
	destroyed bool
}

func (c *VoiceConn) Subscribe() player.RenderSession { return c.renderer }

func (c *VoiceConn) Destroy() error {
	c.renderer.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	return nil
}

func (c *VoiceConn) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Listen receives one whole track from the connection.
func (c *VoiceConn) Listen(t *testing.T) {
	t.Helper()
	for i := range FramesPerTrack {
		select {
		case <-c.Frames:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

// Catalog resolves and streams a fixed set of tracks keyed by query.
type Catalog map[string]media.Track

func (c Catalog) Resolve(_ context.Context, query string) (media.Track, error) {
	track, ok := c[query]
	if !ok {
		return media.Track{}, media.ErrNotFound
	}
	return track, nil
}

func (c Catalog) Stream(_ context.Context, _ media.Track) (io.ReadCloser, error) {
	var buf bytes.Buffer
	for i := range FramesPerTrack {
		if err := opus.WriteFrame(&buf, []byte{0xF8, byte(i)}); err != nil {
			return nil, err
		}
	}
	return io.NopCloser(&buf), nil
}

// Members maps user IDs to the voice channel they sit in.
type Members map[string]string

func (m Members) UserChannel(_, userID string) (string, error) {
	channelID, ok := m[userID]
	if !ok {
		return "", voice.ErrNotInVoice
	}
	return channelID, nil
}

type Options struct {
	GuildID string
	Prefix  string
	Catalog Catalog
	Members Members
	Events  player.EventSink
}

// Bot is the full command pipeline with Discord replaced by fakes.
type Bot struct {
	Dispatcher *handler.Dispatcher
	Controller *player.Controller
	Channel    *Channel
	Voice      *VoiceServer
}

func NewBot(opts Options) *Bot {
	channel := &Channel{}
	voiceServer := &VoiceServer{}

	controller := player.NewController(player.NewStore(), player.Config{
		Transport: voiceServer,
		Streamer:  opts.Catalog,
		Notifier:  handler.ChannelNotifier{Messenger: channel},
		Events:    opts.Events,
		IDs:       &generator.SequenceGenerator{Prefix: "session"},
	})

	dispatcher := handler.NewDispatcher(handler.DispatcherConfig{
		GuildID:   opts.GuildID,
		Prefix:    opts.Prefix,
		Resolver:  opts.Catalog,
		Player:    controller,
		Voice:     opts.Members,
		Messenger: channel,
	})

	return &Bot{
		Dispatcher: dispatcher,
		Controller: controller,
		Channel:    channel,
		Voice:      voiceServer,
	}
}

// Say delivers a message from userID in channelID of guildID.
func (b *Bot) Say(t *testing.T, guildID, channelID, userID, content string) {
	t.Helper()
	b.Dispatcher.Handle(t.Context(), &discordgo.Message{
		ID:        "message",
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	})
}

// Eventually polls cond until it holds or the deadline passes.
func Eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
