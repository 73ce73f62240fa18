package opus_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/glizzus/daeha/internal/opus"
	"github.com/google/go-cmp/cmp"
)

func TestFrameReaderReadsWrittenFrames(t *testing.T) {
	frames := [][]byte{{0x01}, {0x02, 0x03}, bytes.Repeat([]byte{0xff}, 300)}

	var buf bytes.Buffer
	for _, frame := range frames {
		if err := opus.WriteFrame(&buf, frame); err != nil {
			t.Fatalf("WriteFrame() returned error: %v", err)
		}
	}

	reader := opus.NewFrameReader(&buf)
	var got [][]byte
	for {
		frame, err := reader.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame() returned error: %v", err)
		}
		got = append(got, frame)
	}

	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameReaderTruncatedFrame(t *testing.T) {
	// Header promises 4 bytes, body has 2.
	reader := opus.NewFrameReader(bytes.NewReader([]byte{0x04, 0x00, 0xaa, 0xbb}))

	_, err := reader.ReadFrame()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	err := opus.WriteFrame(io.Discard, make([]byte, 1<<16))
	if !errors.Is(err, opus.ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}
