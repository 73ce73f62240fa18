package media

import "fmt"

// Track is a resolved, playable item.
type Track struct {
	Title string
	URL   string
}

func (t Track) String() string {
	return fmt.Sprintf("%s <%s>", t.Title, t.URL)
}

const watchURLPrefix = "https://www.youtube.com/watch?v="

// WatchURL is the canonical URL for a YouTube video ID.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}
