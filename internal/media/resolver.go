package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/ppalone/ytsearch"
)

// VideoFetcher looks up a single video. *youtube.Client satisfies it.
type VideoFetcher interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
}

var _ VideoFetcher = (*youtube.Client)(nil)

// Searcher ranks videos for free text. The first element is the best match.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Track, error)
}

// Resolver turns a user query into a Track.
type Resolver struct {
	videos   VideoFetcher
	searcher Searcher
}

func NewResolver(videos VideoFetcher, searcher Searcher) *Resolver {
	return &Resolver{videos: videos, searcher: searcher}
}

// NewYouTubeResolver wires a Resolver to the real YouTube clients.
func NewYouTubeResolver(client *youtube.Client) *Resolver {
	return NewResolver(client, NewYTSearcher(ytsearch.NewClient(nil)))
}

// Resolve returns the track for a direct link, or the first search result for
// anything else. It fails with ErrNotFound for an empty search and with an
// *UpstreamError when YouTube cannot be reached or refuses the request.
func (r *Resolver) Resolve(ctx context.Context, query string) (Track, error) {
	query = strings.TrimSpace(query)
	if id, ok := VideoID(query); ok {
		return r.resolveLink(ctx, id)
	}

	results, err := r.searcher.Search(ctx, query)
	if err != nil {
		return Track{}, upstream("search", err)
	}
	if len(results) == 0 {
		return Track{}, ErrNotFound
	}

	slog.DebugContext(ctx, "Resolved search query", "query", query, "title", results[0].Title, "candidates", len(results))
	return results[0], nil
}

func (r *Resolver) resolveLink(ctx context.Context, id string) (Track, error) {
	video, err := r.videos.GetVideoContext(ctx, id)
	if err != nil {
		return Track{}, upstream("metadata", err)
	}
	if video == nil || video.ID == "" {
		return Track{}, upstream("metadata", fmt.Errorf("no metadata for video %s", id))
	}
	return Track{Title: video.Title, URL: WatchURL(video.ID)}, nil
}

// YTSearcher searches YouTube through ppalone/ytsearch.
type YTSearcher struct {
	client *ytsearch.Client
}

func NewYTSearcher(client *ytsearch.Client) *YTSearcher {
	return &YTSearcher{client: client}
}

func (s *YTSearcher) Search(ctx context.Context, query string) ([]Track, error) {
	res, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(res.Results))
	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		tracks = append(tracks, Track{Title: v.Title, URL: WatchURL(v.VideoID)})
	}
	return tracks, nil
}

var _ Searcher = (*YTSearcher)(nil)
