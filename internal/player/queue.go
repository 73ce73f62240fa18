package player

import (
	"slices"

	"github.com/glizzus/daeha/internal/media"
)

// Queue is one guild's playback session.
type Queue struct {
	ID            string
	GuildID       string
	TextChannelID string

	conn   Connection
	render RenderSession

	pending []media.Track
	current *media.Track

	// gen identifies the stream most recently handed to render. End events
	// carrying an older generation are stale.
	gen uint64
}

// enqueue appends track and returns its 1-based position in pending.
func (q *Queue) enqueue(track media.Track) int {
	q.pending = append(q.pending, track)
	return len(q.pending)
}

func (q *Queue) pop() (media.Track, bool) {
	if len(q.pending) == 0 {
		return media.Track{}, false
	}
	track := q.pending[0]
	q.pending = q.pending[1:]
	return track, true
}

// Pending returns a copy of the tracks waiting behind the current one.
func (q *Queue) Pending() []media.Track {
	return slices.Clone(q.pending)
}

// Request asks for a track to be played in a guild.
type Request struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	Track          media.Track
}

// Outcome reports what StartOrEnqueue did with a request.
type Outcome struct {
	// Started is true when the request created the queue and its track is
	// now rendering.
	Started   bool
	SessionID string
	// Position is the track's 1-based place in pending when it was queued.
	Position int
}
