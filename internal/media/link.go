package media

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youTubeHosts = map[string]struct{}{
	"youtube.com":       {},
	"www.youtube.com":   {},
	"m.youtube.com":     {},
	"music.youtube.com": {},
	"youtu.be":          {},
}

// VideoID reports the YouTube video ID of a direct link.
// Only absolute http(s) URLs on a YouTube host count as links; bare IDs and
// free text are left for search.
func VideoID(query string) (string, bool) {
	query = strings.TrimSpace(query)
	u, err := url.Parse(query)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	if _, ok := youTubeHosts[strings.ToLower(u.Hostname())]; !ok {
		return "", false
	}

	id, err := youtube.ExtractVideoID(query)
	if err != nil || !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// IsLink reports whether query is a direct YouTube video link.
func IsLink(query string) bool {
	_, ok := VideoID(query)
	return ok
}
