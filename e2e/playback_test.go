package e2e_test

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/glizzus/daeha/e2e"
)

const (
	guildID   = "517907971481534467"
	textID    = "text-channel"
	voiceID   = "voice-channel"
	listener  = "listener"
	bystander = "bystander"
)

var catalog = e2e.Catalog{
	"ditto": {Title: "Ditto", URL: "https://www.youtube.com/watch?v=pSUydWEqKwE"},
	"omg":   {Title: "OMG", URL: "https://www.youtube.com/watch?v=sVTy_wmn5SU"},
	"hype":  {Title: "Hype Boy", URL: "https://www.youtube.com/watch?v=11cta61wi0g"},
}

func newBot() *e2e.Bot {
	return e2e.NewBot(e2e.Options{
		GuildID: guildID,
		Prefix:  "!",
		Catalog: catalog,
		Members: e2e.Members{listener: voiceID},
	})
}

func text(content string) e2e.Sent {
	return e2e.Sent{ChannelID: textID, Content: content}
}

func expectSent(t *testing.T, bot *e2e.Bot, want ...e2e.Sent) {
	t.Helper()
	if diff := cmp.Diff(want, bot.Channel.Drain()); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}
}

func waitNowPlaying(t *testing.T, bot *e2e.Bot, title string) {
	t.Helper()
	e2e.Eventually(t, title+" to play", func() bool {
		track, ok := bot.Controller.NowPlaying(guildID)
		return ok && track.Title == title
	})
}

func TestQueueLifecycle(t *testing.T) {
	bot := newBot()

	bot.Say(t, guildID, textID, listener, "!재생 ditto")
	expectSent(t, bot, text("▶️ 재생: 🦐 Ditto 🦐"))

	if got := bot.Voice.Joins(); got != 1 {
		t.Fatalf("expected 1 voice join, got %d", got)
	}
	conn := bot.Voice.Conn(0)
	if conn.ChannelID != voiceID {
		t.Errorf("expected to join %s, joined %s", voiceID, conn.ChannelID)
	}

	bot.Say(t, guildID, textID, listener, "!재생 omg")
	bot.Say(t, guildID, textID, listener, "!재생 hype")
	bot.Say(t, guildID, textID, listener, "!대기열")
	expectSent(t, bot,
		text("✅ 🦐 OMG 🦐 를 대기열에 추가했어요!"),
		text("✅ 🦐 Hype Boy 🦐 를 대기열에 추가했어요!"),
		e2e.Sent{ChannelID: textID, Embed: &discordgo.MessageEmbed{
			Title:       "🎵 재생 대기열",
			Description: "1. OMG\n2. Hype Boy",
			Color:       0x7E51F4,
		}},
	)

	// Ditto plays to the end and OMG follows.
	conn.Listen(t)
	waitNowPlaying(t, bot, "OMG")
	expectSent(t, bot, text("▶️ 재생: 🦐 OMG 🦐"))

	bot.Say(t, guildID, textID, listener, "!스킵")
	waitNowPlaying(t, bot, "Hype Boy")
	bot.Controller.Wait()
	// The skip reply and the next announcement race each other.
	wantSkip := []e2e.Sent{
		text("⏭️ 노래를 스킵합니다!"),
		text("▶️ 재생: 🦐 Hype Boy 🦐"),
	}
	bySent := cmpopts.SortSlices(func(a, b e2e.Sent) bool { return a.Content < b.Content })
	if diff := cmp.Diff(wantSkip, bot.Channel.Drain(), bySent); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}

	bot.Say(t, guildID, textID, listener, "!종료")
	bot.Controller.Wait()
	if !conn.Destroyed() {
		t.Error("expected the voice connection to be destroyed")
	}

	bot.Say(t, guildID, textID, listener, "!대기열")
	bot.Say(t, guildID, textID, listener, "!스킵")
	bot.Say(t, guildID, textID, listener, "!종료")
	expectSent(t, bot,
		text("👋 노래를 종료하고 🦐대하는 떠납니다!"),
		text("📃 대기열이 비어있어요!"),
		text("⚠️ 스킵할 노래가 없어요!"),
		text("⚠️ 종료할 곡이 없어요!"),
	)
}

func TestQueueEndsAfterLastTrack(t *testing.T) {
	bot := newBot()

	bot.Say(t, guildID, textID, listener, "!재생 ditto")
	bot.Say(t, guildID, textID, listener, "!재생 omg")
	conn := bot.Voice.Conn(0)

	conn.Listen(t)
	waitNowPlaying(t, bot, "OMG")
	conn.Listen(t)

	e2e.Eventually(t, "the connection to close", conn.Destroyed)
	if _, ok := bot.Controller.Pending(guildID); ok {
		t.Error("expected no queue after the last track")
	}

	// The next request starts a fresh session with a new connection.
	bot.Channel.Drain()
	bot.Say(t, guildID, textID, listener, "!재생 hype")
	expectSent(t, bot, text("▶️ 재생: 🦐 Hype Boy 🦐"))
	if got := bot.Voice.Joins(); got != 2 {
		t.Errorf("expected 2 voice joins, got %d", got)
	}
	if pending, _ := bot.Controller.Pending(guildID); len(pending) != 0 {
		t.Errorf("expected nothing pending, got %v", pending)
	}
}

func TestRejectedCommands(t *testing.T) {
	bot := newBot()

	bot.Say(t, "another-guild", textID, listener, "!재생 ditto")
	bot.Say(t, guildID, textID, listener, "!재생")
	bot.Say(t, guildID, textID, bystander, "!재생 ditto")
	bot.Say(t, guildID, textID, listener, "!재생 unknown song")
	bot.Say(t, guildID, textID, listener, "재생 ditto")

	expectSent(t, bot,
		text("❌ 이 서버에서는 사용할 수 없어요!"),
		text("⚠️ 노래 제목이나 URL을 입력해주세요!"),
		text("🎧 먼저 음성 채널에 들어가 주세요!"),
		text("😥 검색 결과가 없습니다..."),
	)
	if got := bot.Voice.Joins(); got != 0 {
		t.Errorf("expected no voice join, got %d", got)
	}
	if _, ok := bot.Controller.NowPlaying(guildID); ok {
		t.Error("expected nothing to be playing")
	}
}

func TestCommandsFromAnotherGuild(t *testing.T) {
	const otherGuild = "another-guild"
	commands := []string{"!재생 ditto", "!스킵", "!대기열", "!종료"}
	wrongGuild := text("❌ 이 서버에서는 사용할 수 없어요!")

	bot := newBot()

	for _, content := range commands {
		bot.Say(t, otherGuild, textID, listener, content)
	}
	expectSent(t, bot, wrongGuild, wrongGuild, wrongGuild, wrongGuild)
	if got := bot.Voice.Joins(); got != 0 {
		t.Errorf("expected no voice join, got %d", got)
	}
	for _, id := range []string{guildID, otherGuild} {
		if _, ok := bot.Controller.Pending(id); ok {
			t.Errorf("expected no queue in %s", id)
		}
	}

	bot.Say(t, guildID, textID, listener, "!재생 ditto")
	bot.Say(t, guildID, textID, listener, "!재생 omg")
	bot.Channel.Drain()

	for _, content := range commands {
		bot.Say(t, otherGuild, textID, listener, content)
	}
	bot.Controller.Wait()
	expectSent(t, bot, wrongGuild, wrongGuild, wrongGuild, wrongGuild)

	track, ok := bot.Controller.NowPlaying(guildID)
	if !ok || track.Title != "Ditto" {
		t.Errorf("expected Ditto to keep playing, got %v (ok=%t)", track, ok)
	}
	pending, _ := bot.Controller.Pending(guildID)
	var titles []string
	for _, track := range pending {
		titles = append(titles, track.Title)
	}
	if diff := cmp.Diff([]string{"OMG"}, titles); diff != "" {
		t.Errorf("unexpected pending tracks (-want +got):\n%s", diff)
	}
	if got := bot.Voice.Joins(); got != 1 {
		t.Errorf("expected 1 voice join, got %d", got)
	}
	if bot.Voice.Conn(0).Destroyed() {
		t.Error("expected the connection to stay open")
	}
}
