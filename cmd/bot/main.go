package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kkdai/youtube/v2"
	"github.com/redis/go-redis/v9"

	"github.com/glizzus/daeha/internal/config"
	"github.com/glizzus/daeha/internal/handler"
	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/voice"
	"github.com/glizzus/daeha/internal/worker"
)

func newEventSink(ctx context.Context, cfg *config.PlayerConfig) (player.EventSink, func(), error) {
	if !cfg.PublishEvents {
		return player.LogSink{}, func() {}, nil
	}

	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load redis config: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return worker.NewRedisEventPublisher(rdb, redisConfig.Stream), closeFn, nil
}

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	botConfig, err := config.NewBotConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load bot config: %w", err)
	}
	playerConfig, err := config.NewPlayerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load player config: %w", err)
	}
	level, err := playerConfig.Level()
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	slog.SetLogLoggerLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, closeEvents, err := newEventSink(ctx, playerConfig)
	if err != nil {
		return err
	}
	defer closeEvents()

	yt := &youtube.Client{}
	resolver := media.NewYouTubeResolver(yt)
	openers := []media.Opener{media.NewKkdaiOpener(yt)}
	if playerConfig.YTDLPFallback {
		openers = append(openers, media.NewYTDLPOpener())
	}
	streamer := media.NewStreamer(openers...)

	session, err := handler.NewSession(botConfig.Token, handler.Handlers{
		Ready: handler.ReadyLog(botConfig.Prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	controller := player.NewController(player.NewStore(), player.Config{
		Transport:     voice.NewTransport(session),
		Streamer:      streamer,
		Notifier:      handler.ChannelNotifier{Messenger: session},
		Events:        events,
		StreamTimeout: playerConfig.StreamTimeout,
	})

	dispatcher := handler.NewDispatcher(handler.DispatcherConfig{
		GuildID:      botConfig.GuildID,
		Prefix:       botConfig.Prefix,
		Resolver:     resolver,
		Player:       controller,
		Voice:        voice.StateLocator{State: session.State},
		Messenger:    session,
		CommandRate:  playerConfig.CommandRate,
		CommandBurst: playerConfig.CommandBurst,
	})
	session.AddHandler(dispatcher.MessageCreate())

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	slog.Info("Listening for commands", "guildID", botConfig.GuildID, "prefix", botConfig.Prefix)
	<-ctx.Done()

	slog.Info("Shutting down")
	controller.StopAll(context.Background())
	controller.Wait()
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
