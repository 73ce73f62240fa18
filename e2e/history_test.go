package e2e_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/glizzus/daeha/e2e"
	"github.com/glizzus/daeha/internal/player"
	"github.com/glizzus/daeha/internal/worker"
)

// directSink hands events straight to the recorder, standing in for the
// Redis stream between bot and worker.
type directSink struct {
	recorder *worker.HistoryRecorder
}

func (s directSink) Publish(ctx context.Context, event player.Event) error {
	return s.recorder.HandleDelivery(ctx, worker.Delivery{
		MessageID: uuid.NewString(),
		Event:     event,
	})
}

func TestPlayHistoryIsRecorded(t *testing.T) {
	connStr := e2e.UsePostgres(t)
	repo := e2e.GetRepository(t, connStr)

	// The database is shared, so use a guild no other test writes to.
	guild := uuid.NewString()

	bot := e2e.NewBot(e2e.Options{
		GuildID: guild,
		Prefix:  "!",
		Catalog: catalog,
		Members: e2e.Members{listener: voiceID},
		Events:  directSink{recorder: worker.NewHistoryRecorder(repo)},
	})

	bot.Say(t, guild, textID, listener, "!재생 ditto")
	bot.Say(t, guild, textID, listener, "!재생 omg")

	conn := bot.Voice.Conn(0)
	conn.Listen(t)
	e2e.Eventually(t, "OMG to play", func() bool {
		track, ok := bot.Controller.NowPlaying(guild)
		return ok && track.Title == "OMG"
	})

	bot.Say(t, guild, textID, listener, "!종료")
	bot.Controller.Wait()

	plays, err := repo.List(t.Context(), guild, 10)
	if err != nil {
		t.Fatalf("failed to list plays: %v", err)
	}
	if len(plays) != 2 {
		t.Fatalf("expected 2 plays, got %d: %+v", len(plays), plays)
	}

	if plays[0].Title != "OMG" || plays[1].Title != "Ditto" {
		t.Errorf("expected OMG then Ditto, got %+v", plays)
	}
	for _, play := range plays {
		if play.SessionID != "session-1" || play.GuildID != guild {
			t.Errorf("unexpected play metadata: %+v", play)
		}
	}
}
