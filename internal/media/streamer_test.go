package media_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/glizzus/daeha/internal/media"
	"github.com/google/go-cmp/cmp"
	"github.com/kkdai/youtube/v2"
)

type fakeOpener struct {
	name   string
	err    error
	opened int
}

func (f *fakeOpener) Name() string { return f.name }

func (f *fakeOpener) Open(context.Context, media.Track) (io.ReadCloser, error) {
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.name)), nil
}

func TestStreamerFallsBack(t *testing.T) {
	primary := &fakeOpener{name: "primary", err: errors.New("blocked")}
	fallback := &fakeOpener{name: "fallback"}

	stream, err := media.NewStreamer(primary, fallback).Stream(t.Context(), media.Track{URL: media.WatchURL("dQw4w9WgXcQ")})
	if err != nil {
		t.Fatalf("Stream() returned error: %v", err)
	}
	defer stream.Close()

	body, _ := io.ReadAll(stream)
	if string(body) != "fallback" {
		t.Errorf("expected the fallback stream, got %q", body)
	}
	if primary.opened != 1 || fallback.opened != 1 {
		t.Errorf("expected each opener to be tried once, got %d and %d", primary.opened, fallback.opened)
	}
}

func TestStreamerStopsAtFirstSuccess(t *testing.T) {
	primary := &fakeOpener{name: "primary"}
	fallback := &fakeOpener{name: "fallback"}

	stream, err := media.NewStreamer(primary, fallback).Stream(t.Context(), media.Track{})
	if err != nil {
		t.Fatalf("Stream() returned error: %v", err)
	}
	stream.Close()

	if fallback.opened != 0 {
		t.Errorf("fallback should not be tried when the primary opens")
	}
}

func TestStreamerAllFail(t *testing.T) {
	tests := []struct {
		name    string
		openers []media.Opener
	}{
		{name: "no openers"},
		{
			name: "every opener fails",
			openers: []media.Opener{
				&fakeOpener{name: "a", err: errors.New("a failed")},
				&fakeOpener{name: "b", err: errors.New("b failed")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := media.NewStreamer(tt.openers...).Stream(t.Context(), media.Track{})
			var upstreamErr *media.UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected *UpstreamError, got %v", err)
			}
			if upstreamErr.Op != "stream" {
				t.Errorf("expected op %q, got %q", "stream", upstreamErr.Op)
			}
		})
	}
}

func TestYTDLPOpener(t *testing.T) {
	var encoded string
	opener := &media.YTDLPOpener{
		LookupURL: func(_ context.Context, watchURL string) (string, error) {
			return watchURL + "&direct=1", nil
		},
		EncodeURL: func(url string) (io.ReadCloser, error) {
			encoded = url
			return io.NopCloser(strings.NewReader("")), nil
		},
	}

	stream, err := opener.Open(t.Context(), media.Track{URL: media.WatchURL("dQw4w9WgXcQ")})
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	stream.Close()

	if encoded != "https://www.youtube.com/watch?v=dQw4w9WgXcQ&direct=1" {
		t.Errorf("ffmpeg was given %q", encoded)
	}
}

type closeLog struct {
	closed []string
}

type loggedCloser struct {
	io.Reader
	name string
	log  *closeLog
}

func (c *loggedCloser) Close() error {
	c.log.closed = append(c.log.closed, c.name)
	return nil
}

type fakeStreamClient struct {
	log *closeLog
}

func (f *fakeStreamClient) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	return &youtube.Video{
		ID:    id,
		Title: "Ditto",
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: "video/mp4"},
			{ItagNo: 251, MimeType: "audio/webm; codecs=\"opus\"", AudioChannels: 2},
		},
	}, nil
}

func (f *fakeStreamClient) GetStreamContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	if format.ItagNo != 251 {
		return nil, 0, errors.New("expected the audio format")
	}
	return &loggedCloser{Reader: strings.NewReader("ogg"), name: "download", log: f.log}, 3, nil
}

func TestKkdaiOpenerClosesDownloadFirst(t *testing.T) {
	log := &closeLog{}
	opener := &media.KkdaiOpener{
		Client: &fakeStreamClient{log: log},
		Encode: func(r io.Reader) (io.ReadCloser, error) {
			return &loggedCloser{Reader: r, name: "encoder", log: log}, nil
		},
	}

	stream, err := opener.Open(t.Context(), media.Track{URL: media.WatchURL("pSUydWEqKwE")})
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	// The encoder waits on its input copy, so the download must close first.
	if diff := cmp.Diff([]string{"download", "encoder"}, log.closed); diff != "" {
		t.Errorf("unexpected close order (-want +got):\n%s", diff)
	}
}
