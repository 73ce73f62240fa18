package opus

import (
	"errors"
	"io"
	"time"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// SendTimeout is how long StreamToVoice waits for the voice connection to
// accept a single frame.
var SendTimeout = time.Minute

// StreamToVoice reads Opus frames from source and sends them to sink, usually
// a discordgo VoiceConnection's OpusSend channel. It blocks until all frames
// are sent, stop is closed, or an error occurs.
// Returns nil on clean EOF and when stopped.
func StreamToVoice(source *FrameReader, sink chan<- []byte, stop <-chan struct{}) error {
	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		frame, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(SendTimeout)

		select {
		case sink <- frame:
		case <-stop:
			return nil
		case <-timer.C:
			return ErrVoiceConnClosed
		}
	}
}
