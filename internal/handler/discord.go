package handler

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/presenters"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type MessageCreateHandler = func(*discordgo.Session, *discordgo.MessageCreate)

func ReadyLog(prefix string) ReadyHandler {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "username", r.User.Username, "userID", r.User.ID, "prefix", prefix)
	}
}

// Intents are the gateway intents prefix commands and voice lookups need.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildVoiceStates

type Handlers struct {
	Ready         ReadyHandler
	MessageCreate MessageCreateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = Intents

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.MessageCreate != nil {
		s.AddHandler(handlers.MessageCreate)
	}

	return s, nil
}

// ChannelNotifier posts playback notifications to text channels.
type ChannelNotifier struct {
	Messenger Messenger
}

func (n ChannelNotifier) NowPlaying(channelID string, track media.Track) error {
	_, err := n.Messenger.ChannelMessageSend(channelID, presenters.NowPlaying(track))
	return err
}

func (n ChannelNotifier) PlaybackFailed(channelID string, track media.Track, _ error) error {
	_, err := n.Messenger.ChannelMessageSend(channelID, presenters.FailedTrack(track))
	return err
}

var _ player.Notifier = ChannelNotifier{}
