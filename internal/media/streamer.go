package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/glizzus/daeha/internal/opus"
	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
)

// Opener opens the audio of a track as length-prefixed Opus frames.
type Opener interface {
	Name() string
	Open(ctx context.Context, track Track) (io.ReadCloser, error)
}

// Streamer tries each of its openers in order and returns the first stream
// that opens.
type Streamer struct {
	openers []Opener
}

func NewStreamer(openers ...Opener) *Streamer {
	return &Streamer{openers: openers}
}

// Stream opens track. ctx bounds acquisition only; once returned, the stream
// lives until it is closed.
func (s *Streamer) Stream(ctx context.Context, track Track) (io.ReadCloser, error) {
	if len(s.openers) == 0 {
		return nil, upstream("stream", errors.New("no stream openers configured"))
	}

	var errs []error
	for _, opener := range s.openers {
		stream, err := opener.Open(ctx, track)
		if err == nil {
			slog.DebugContext(ctx, "Opened stream", "opener", opener.Name(), "url", track.URL)
			return stream, nil
		}
		slog.WarnContext(ctx, "Stream opener failed", "opener", opener.Name(), "url", track.URL, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", opener.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, upstream("stream", errors.Join(errs...))
}

// StreamClient is the subset of *youtube.Client the kkdai opener uses.
type StreamClient interface {
	VideoFetcher
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ StreamClient = (*youtube.Client)(nil)

// KkdaiOpener downloads the audio with kkdai/youtube and transcodes it with
// ffmpeg.
type KkdaiOpener struct {
	Client StreamClient
	Encode func(io.Reader) (io.ReadCloser, error)
}

func NewKkdaiOpener(client StreamClient) *KkdaiOpener {
	return &KkdaiOpener{Client: client, Encode: opus.Encode}
}

func (o *KkdaiOpener) Name() string { return "kkdai" }

func (o *KkdaiOpener) Open(ctx context.Context, track Track) (io.ReadCloser, error) {
	id, ok := VideoID(track.URL)
	if !ok {
		return nil, fmt.Errorf("not a YouTube video URL: %s", track.URL)
	}

	video, err := o.Client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("no audio formats found for video")
	}

	// The download keeps reading after acquisition, so it must not inherit
	// the acquisition deadline.
	raw, _, err := o.Client.GetStreamContext(context.WithoutCancel(ctx), video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	frames, err := o.Encode(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}
	return &chainCloser{ReadCloser: frames, closers: []io.Closer{raw}}, nil
}

var _ Opener = (*KkdaiOpener)(nil)

// YTDLPOpener asks yt-dlp for a direct audio URL and lets ffmpeg fetch it.
type YTDLPOpener struct {
	// LookupURL returns the direct media URL for a watch URL.
	LookupURL func(ctx context.Context, watchURL string) (string, error)
	EncodeURL func(url string) (io.ReadCloser, error)
}

func NewYTDLPOpener() *YTDLPOpener {
	return &YTDLPOpener{LookupURL: lookupYTDLPURL, EncodeURL: opus.EncodeURL}
}

func (o *YTDLPOpener) Name() string { return "yt-dlp" }

func (o *YTDLPOpener) Open(ctx context.Context, track Track) (io.ReadCloser, error) {
	direct, err := o.LookupURL(ctx, track.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up media URL: %w", err)
	}
	frames, err := o.EncodeURL(direct)
	if err != nil {
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}
	return frames, nil
}

var _ Opener = (*YTDLPOpener)(nil)

func lookupYTDLPURL(ctx context.Context, watchURL string) (string, error) {
	res, err := ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist().
		IgnoreConfig().
		Format("bestaudio/best").
		Print("urls").
		Run(ctx, watchURL)
	if err != nil {
		return "", err
	}
	return firstLine(res.Stdout)
}

func firstLine(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", errors.New("yt-dlp printed no URL")
}

// chainCloser closes every extra closer and then the wrapped reader. The
// extras feed the reader, so they go first to unblock anything still copying
// from them.
type chainCloser struct {
	io.ReadCloser
	closers []io.Closer
}

func (c *chainCloser) Close() error {
	var err error
	for _, closer := range c.closers {
		err = errors.Join(err, closer.Close())
	}
	return errors.Join(err, c.ReadCloser.Close())
}
