package util

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestFindFirst(t *testing.T) {
	states := []*discordgo.VoiceState{
		{UserID: "lurker"},
		{UserID: "listener", ChannelID: "voice-1"},
		{UserID: "listener", ChannelID: "voice-2"},
		{UserID: "dj", ChannelID: "voice-2"},
	}

	tests := []struct {
		name    string
		states  []*discordgo.VoiceState
		userID  string
		channel string
		found   bool
	}{
		{name: "first matching state wins", states: states, userID: "listener", channel: "voice-1", found: true},
		{name: "last state", states: states, userID: "dj", channel: "voice-2", found: true},
		{name: "state without a channel is skipped", states: states, userID: "lurker"},
		{name: "unknown user", states: states, userID: "bystander"},
		{name: "empty guild", states: nil, userID: "listener"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, found := FindFirst(tt.states, func(vs *discordgo.VoiceState) bool {
				return vs.UserID == tt.userID && vs.ChannelID != ""
			})
			if found != tt.found {
				t.Fatalf("FindFirst() found = %v, want %v", found, tt.found)
			}
			if !found {
				if vs != nil {
					t.Errorf("FindFirst() = %+v, want nil", vs)
				}
				return
			}
			if vs.ChannelID != tt.channel {
				t.Errorf("FindFirst() channel = %q, want %q", vs.ChannelID, tt.channel)
			}
		})
	}
}
