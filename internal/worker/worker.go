package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/repository"
)

type DeliveryHandler interface {
	HandleDelivery(ctx context.Context, delivery Delivery) error
}

// HistoryRecorder stores now playing events as play history rows.
type HistoryRecorder struct {
	plays repository.PlayRecorder
}

func NewHistoryRecorder(plays repository.PlayRecorder) *HistoryRecorder {
	return &HistoryRecorder{plays: plays}
}

// playNamespace scopes play IDs derived from stream entry IDs.
var playNamespace = uuid.MustParse("0b6a1f49-8d3c-4f43-9a63-5f3d0e6c2b71")

// PlayID derives a stable row ID from a stream entry, so a redelivered entry
// maps to the row already written.
func PlayID(messageID string) string {
	return uuid.NewSHA1(playNamespace, []byte(messageID)).String()
}

func (h *HistoryRecorder) HandleDelivery(ctx context.Context, delivery Delivery) error {
	event := delivery.Event
	if event.Kind != player.EventNowPlaying {
		slog.DebugContext(ctx, "Ignoring playback event", "kind", string(event.Kind), "sessionID", event.SessionID)
		return nil
	}

	play := repository.Play{
		ID:        PlayID(delivery.MessageID),
		SessionID: event.SessionID,
		GuildID:   event.GuildID,
		Title:     event.Track.Title,
		URL:       event.Track.URL,
		PlayedAt:  event.At,
	}
	if err := h.plays.Save(ctx, play); err != nil {
		return fmt.Errorf("failed to record play %s: %w", play.ID, err)
	}

	slog.InfoContext(
		ctx,
		"Recorded play",
		slog.String("guildID", play.GuildID),
		slog.String("sessionID", play.SessionID),
		slog.String("title", play.Title),
	)
	return nil
}

var _ DeliveryHandler = (*HistoryRecorder)(nil)

type Receiver interface {
	Receive(ctx context.Context) ([]Delivery, error)
	Ack(ctx context.Context, messageIDs ...string) error
}

var _ Receiver = (*RedisEventReceiver)(nil)

// Run feeds deliveries to handler until ctx is done. Deliveries the handler
// fails on are not acknowledged, so the receiver hands them out again once
// they have been idle long enough.
func Run(ctx context.Context, receiver Receiver, handler DeliveryHandler) error {
	for {
		deliveries, err := receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive events: %w", err)
		}

		handled := make([]string, 0, len(deliveries))
		for _, delivery := range deliveries {
			if err := handler.HandleDelivery(ctx, delivery); err != nil {
				slog.ErrorContext(ctx, "Failed to handle playback event", "messageID", delivery.MessageID, "error", err)
				continue
			}
			handled = append(handled, delivery.MessageID)
		}

		if err := receiver.Ack(ctx, handled...); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
