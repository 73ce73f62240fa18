package opus

import (
	"errors"
	"io"
	"os/exec"

	"github.com/jonas747/ogg"
)

// Encode takes any audio as an io.Reader, runs FFmpeg to transcode it to Opus,
// and returns an io.ReadCloser that produces length-prefixed Opus frames.
// The caller should read until EOF. The returned io.ReadCloser must be closed
// to clean up the FFmpeg process.
func Encode(r io.Reader) (io.ReadCloser, error) {
	ffmpeg := ffmpegCommand("pipe:0")
	ffmpeg.Stdin = r
	return start(ffmpeg)
}

// EncodeURL is Encode for audio FFmpeg can fetch by itself, such as a direct
// media URL. Dropped connections are retried by FFmpeg.
func EncodeURL(url string) (io.ReadCloser, error) {
	return start(ffmpegCommand(url,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	))
}

func ffmpegCommand(input string, inputOpts ...string) *exec.Cmd {
	args := append([]string{"-loglevel", "warning"}, inputOpts...)
	args = append(args,
		"-i", input,
		"-vn",
		"-map", "0:a",
		"-acodec", "libopus",
		"-f", "ogg",
		"-vbr", "on",
		"-compression_level", "10",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", "96000",
		"-application", "audio",
		"-frame_duration", "20",
		"-packet_loss", "1",
		"-threads", "0",
		"pipe:1",
	)
	return exec.Command("ffmpeg", args...)
}

func start(ffmpeg *exec.Cmd) (io.ReadCloser, error) {
	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := ffmpeg.Start(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()

	go func() {
		defer pw.Close()
		if err := Frame(pw, stdout); err != nil {
			pw.CloseWithError(err)
		}
	}()

	return &encodeCloser{ReadCloser: pr, cmd: ffmpeg}, nil
}

// Frame reads an Ogg/Opus stream from r and writes its audio packets to w as
// length-prefixed frames. The OpusHead and OpusTags packets are dropped.
func Frame(w io.Writer, r io.Reader) error {
	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(r))

	skip := 2
	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if skip > 0 {
			skip--
			continue
		}

		if err := WriteFrame(w, packet); err != nil {
			return err
		}
	}
}

// encodeCloser wraps the pipe reader and ensures the FFmpeg process is cleaned up.
type encodeCloser struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (e *encodeCloser) Close() error {
	err := e.ReadCloser.Close()
	// Kill FFmpeg if still running (e.g. pipe closed early).
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	e.cmd.Wait()
	return err
}
