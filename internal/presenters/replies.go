package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/daeha/internal/media"
)

const (
	WrongGuild     = "❌ 이 서버에서는 사용할 수 없어요!"
	MissingQuery   = "⚠️ 노래 제목이나 URL을 입력해주세요!"
	NoVoiceChannel = "🎧 먼저 음성 채널에 들어가 주세요!"
	NotFound       = "😥 검색 결과가 없습니다..."
	UpstreamFailed = "❌ 노래 정보를 가져오지 못했어요. 잠시 후 다시 시도해 주세요."
	StartFailed    = "❌ 노래를 재생하지 못했어요. 잠시 후 다시 시도해 주세요."
	PlaybackFailed = "❌ 노래를 재생하지 못했어요. 다음 곡으로 넘어갈게요."
	RateLimited    = "⏳ 너무 빨라요! 잠시 후 다시 시도해 주세요."
	Skipped        = "⏭️ 노래를 스킵합니다!"
	NothingToSkip  = "⚠️ 스킵할 노래가 없어요!"
	EmptyQueue     = "📃 대기열이 비어있어요!"
	Stopped        = "👋 노래를 종료하고 🦐대하는 떠납니다!"
	NothingToStop  = "⚠️ 종료할 곡이 없어요!"
)

const (
	QueueTitle = "🎵 재생 대기열"
	QueueColor = 0x7E51F4
)

func Enqueued(track media.Track) string {
	return fmt.Sprintf("✅ 🦐 %s 🦐 를 대기열에 추가했어요!", track.Title)
}

func NowPlaying(track media.Track) string {
	return fmt.Sprintf("▶️ 재생: 🦐 %s 🦐", track.Title)
}

// FailedTrack names the track that could not be played.
func FailedTrack(track media.Track) string {
	return fmt.Sprintf("%s (%s)", PlaybackFailed, track.Title)
}

// QueueEmbed lists pending tracks, numbered from 1. It returns nil when there
// is nothing to list.
func QueueEmbed(tracks []media.Track) *discordgo.MessageEmbed {
	if len(tracks) == 0 {
		return nil
	}

	lines := make([]string, 0, len(tracks))
	for i, track := range tracks {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, track.Title))
	}

	return &discordgo.MessageEmbed{
		Title:       QueueTitle,
		Description: strings.Join(lines, "\n"),
		Color:       QueueColor,
	}
}
