package voice

import (
	"io"
	"sync"

	"github.com/glizzus/daeha/internal/opus"
	"github.com/glizzus/daeha/internal/player"
)

// Renderer sends one framed Opus stream at a time to a voice connection's
// send channel.
type Renderer struct {
	sink chan<- []byte

	mu          sync.Mutex
	stop        chan struct{}
	done        chan struct{}
	closeFrames func() error
}

func NewRenderer(sink chan<- []byte) *Renderer {
	return &Renderer{sink: sink}
}

func (r *Renderer) Play(frames io.ReadCloser, onEnd func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return player.ErrRendering
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	closeFrames := sync.OnceValue(frames.Close)
	r.stop, r.done, r.closeFrames = stop, done, closeFrames

	go func() {
		err := opus.StreamToVoice(opus.NewFrameReader(frames), r.sink, stop)
		closeFrames()

		// A read failing because Stop closed the source is a stop, not an error.
		select {
		case <-stop:
			err = nil
		default:
		}

		r.mu.Lock()
		if r.stop == stop {
			r.stop, r.done, r.closeFrames = nil, nil, nil
		}
		r.mu.Unlock()
		close(done)

		onEnd(err)
	}()
	return nil
}

// Stop ends the current stream and waits for the send loop to exit. The
// source is closed first, so a read blocked on a stalled upstream returns.
func (r *Renderer) Stop() {
	r.mu.Lock()
	stop, done, closeFrames := r.stop, r.done, r.closeFrames
	r.stop, r.done, r.closeFrames = nil, nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	closeFrames()
	<-done
}

func (r *Renderer) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

var _ player.RenderSession = (*Renderer)(nil)
