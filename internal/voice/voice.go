package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/util"
)

var ErrNotInVoice = errors.New("user is not in a voice channel")

// UserChannel returns the voice channel userID is connected to in guildID.
func UserChannel(state *discordgo.State, guildID, userID string) (string, error) {
	vs, err := state.VoiceState(guildID, userID)
	if err == nil && vs.ChannelID != "" {
		return vs.ChannelID, nil
	}

	guild, err := state.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to look up guild %s: %w", guildID, err)
	}

	vs, ok := util.FindFirst(guild.VoiceStates, func(vs *discordgo.VoiceState) bool {
		return vs.UserID == userID && vs.ChannelID != ""
	})
	if !ok {
		return "", ErrNotInVoice
	}
	return vs.ChannelID, nil
}

// StateLocator finds users' voice channels through a session's state cache.
type StateLocator struct {
	State *discordgo.State
}

func (l StateLocator) UserChannel(guildID, userID string) (string, error) {
	return UserChannel(l.State, guildID, userID)
}

// Joiner is the part of *discordgo.Session that opens voice connections.
type Joiner interface {
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// Transport joins voice channels through a Discord session.
type Transport struct {
	Session Joiner
}

func NewTransport(s *discordgo.Session) *Transport {
	return &Transport{Session: s}
}

func (t *Transport) Join(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	vc, err := t.Session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("unable to join the voice channel: %w", err)
	}

	if err := vc.Speaking(true); err != nil {
		if derr := vc.Disconnect(); derr != nil {
			slog.ErrorContext(ctx, "Failed to disconnect", "guildID", guildID, "error", derr)
		}
		return nil, fmt.Errorf("error setting speaking state to 'true': %w", err)
	}

	return &Connection{vc: vc, render: NewRenderer(vc.OpusSend)}, nil
}

var _ player.Transport = (*Transport)(nil)

// Connection is a live discordgo voice connection.
type Connection struct {
	vc     *discordgo.VoiceConnection
	render *Renderer
}

func (c *Connection) Subscribe() player.RenderSession {
	return c.render
}

func (c *Connection) Destroy() error {
	c.render.Stop()

	if err := c.vc.Speaking(false); err != nil {
		slog.Error("failed to stop speaking", "guildID", c.vc.GuildID, "error", err)
	}
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

var _ player.Connection = (*Connection)(nil)
