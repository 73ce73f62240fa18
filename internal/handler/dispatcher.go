package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/presenters"
)

// Messenger is the part of *discordgo.Session the dispatcher writes with.
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Resolver interface {
	Resolve(ctx context.Context, query string) (media.Track, error)
}

// Player is implemented by *player.Controller.
type Player interface {
	StartOrEnqueue(ctx context.Context, req player.Request) (player.Outcome, error)
	Skip(ctx context.Context, guildID string) error
	Stop(ctx context.Context, guildID string) error
	Pending(guildID string) ([]media.Track, bool)
}

var _ Player = (*player.Controller)(nil)

// VoiceLocator finds the voice channel a user is connected to.
type VoiceLocator interface {
	UserChannel(guildID, userID string) (string, error)
}

type DispatcherConfig struct {
	GuildID string
	Prefix  string

	Resolver  Resolver
	Player    Player
	Voice     VoiceLocator
	Messenger Messenger

	// CommandRate is the per-user command rate in commands per second.
	// Zero disables limiting.
	CommandRate  float64
	CommandBurst int
}

// Dispatcher turns chat messages into player operations and replies.
type Dispatcher struct {
	guildID string
	prefix  string

	resolver  Resolver
	player    Player
	voice     VoiceLocator
	messenger Messenger
	limiter   *userLimiter
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		guildID:   cfg.GuildID,
		prefix:    cfg.Prefix,
		resolver:  cfg.Resolver,
		player:    cfg.Player,
		voice:     cfg.Voice,
		messenger: cfg.Messenger,
		limiter:   newUserLimiter(cfg.CommandRate, cfg.CommandBurst),
	}
}

// MessageCreate adapts the dispatcher to a discordgo event handler.
func (d *Dispatcher) MessageCreate() MessageCreateHandler {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		d.Handle(context.Background(), m.Message)
	}
}

// Handle runs the command in m, if any. Failures are logged and, where the
// user can act on them, replied to.
func (d *Dispatcher) Handle(ctx context.Context, m *discordgo.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Command handler panicked", "messageID", m.ID, "panic", r)
		}
	}()

	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}
	if m.GuildID != d.guildID {
		slog.InfoContext(ctx, "Rejected message from another guild", "guildID", m.GuildID)
		d.reply(ctx, m, presenters.WrongGuild)
		return
	}

	cmd, ok := ParseCommand(m.Content, d.prefix)
	if !ok {
		return
	}

	var run func(context.Context, *discordgo.Message, Command) error
	switch cmd.Name {
	case CommandPlay:
		run = d.play
	case CommandSkip:
		run = d.skip
	case CommandQueue:
		run = d.queue
	case CommandStop:
		run = d.stop
	default:
		return
	}

	logger := slog.With("guildID", m.GuildID, "userID", m.Author.ID, "command", cmd.Name)
	if !d.limiter.Allow(m.Author.ID) {
		logger.InfoContext(ctx, "Command rate limited")
		d.reply(ctx, m, ErrRateLimited.Message)
		return
	}

	logger.DebugContext(ctx, "Running command", "args", cmd.Args)
	if err := run(ctx, m, cmd); err != nil {
		if msg, ok := userMessage(err); ok {
			logger.InfoContext(ctx, "Command failed", "error", err)
			d.reply(ctx, m, msg)
			return
		}
		logger.ErrorContext(ctx, "Command failed", "error", err)
	}
}

func (d *Dispatcher) play(ctx context.Context, m *discordgo.Message, cmd Command) error {
	query := cmd.Query()
	if query == "" {
		return ErrMissingQuery
	}

	channelID, err := d.voice.UserChannel(m.GuildID, m.Author.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoVoiceChannel, err)
	}
	if channelID == "" {
		return ErrNoVoiceChannel
	}

	track, err := d.resolver.Resolve(ctx, query)
	if err != nil {
		var upstream *media.UpstreamError
		switch {
		case errors.Is(err, media.ErrNotFound):
			return &UserError{Message: presenters.NotFound, Err: err}
		case errors.As(err, &upstream):
			return &UserError{Message: presenters.UpstreamFailed, Err: err}
		default:
			return fmt.Errorf("failed to resolve %q: %w", query, err)
		}
	}

	outcome, err := d.player.StartOrEnqueue(ctx, player.Request{
		GuildID:        m.GuildID,
		VoiceChannelID: channelID,
		TextChannelID:  m.ChannelID,
		Track:          track,
	})
	if err != nil {
		return &UserError{Message: presenters.StartFailed, Err: err}
	}

	// A started track is announced by the now playing notification.
	if !outcome.Started {
		d.reply(ctx, m, presenters.Enqueued(track))
	}
	return nil
}

func (d *Dispatcher) skip(ctx context.Context, m *discordgo.Message, _ Command) error {
	err := d.player.Skip(ctx, m.GuildID)
	if errors.Is(err, player.ErrNothingToSkip) {
		return &UserError{Message: presenters.NothingToSkip, Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to skip: %w", err)
	}
	d.reply(ctx, m, presenters.Skipped)
	return nil
}

func (d *Dispatcher) queue(ctx context.Context, m *discordgo.Message, _ Command) error {
	tracks, _ := d.player.Pending(m.GuildID)
	embed := presenters.QueueEmbed(tracks)
	if embed == nil {
		d.reply(ctx, m, presenters.EmptyQueue)
		return nil
	}

	if _, err := d.messenger.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		return fmt.Errorf("failed to send queue embed: %w", err)
	}
	return nil
}

func (d *Dispatcher) stop(ctx context.Context, m *discordgo.Message, _ Command) error {
	err := d.player.Stop(ctx, m.GuildID)
	if errors.Is(err, player.ErrNothingToStop) {
		return &UserError{Message: presenters.NothingToStop, Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	d.reply(ctx, m, presenters.Stopped)
	return nil
}

func (d *Dispatcher) reply(ctx context.Context, m *discordgo.Message, content string) {
	if _, err := d.messenger.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		slog.WarnContext(ctx, "Failed to reply", "channelID", m.ChannelID, "error", err)
	}
}
