package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	playlistIDRegex  = regexp.MustCompile(`^[A-Za-z0-9_-]{13,42}$`)
	playlistURLRegex = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]{13,42})`)
)

// ValidateInputURL accepts absolute http(s) URLs.
func ValidateInputURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid URL: missing scheme or host")
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	return parsed.String(), nil
}

// LooksLikePlaylist reports whether raw is a playlist ID or carries a list
// parameter.
func LooksLikePlaylist(raw string) bool {
	return playlistIDRegex.MatchString(raw) || playlistURLRegex.MatchString(raw)
}

// PlaylistRedirect returns the playlist URL for a watch URL that also names a
// playlist (watch?v=ID&list=PL...). Such a URL targets one member of the
// playlist rather than the playlist itself.
func PlaylistRedirect(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	query := parsed.Query()
	video := query.Get("v")
	list := query.Get("list")
	if video == "" || list == "" {
		return "", false
	}
	return playlistURLForID(list), true
}

// NormalizeYouTubeURL converts alternate YouTube URL forms (live/shorts/youtu.be) to watch?v=.
func NormalizeYouTubeURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	host := normalizeHostname(parsed)
	if host == "music.youtube.com" {
		parsed.Host = "www.youtube.com"
		query := parsed.Query()
		query.Del("si")
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}
	if host != "youtube.com" && host != "youtu.be" {
		return u
	}
	query := parsed.Query()
	if host == "youtu.be" {
		id := strings.TrimPrefix(parsed.Path, "/")
		if id != "" {
			query.Set("v", id)
			parsed.Host = "www.youtube.com"
			parsed.Path = "/watch"
			parsed.RawQuery = query.Encode()
		}
		return parsed.String()
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "live" || parts[0] == "shorts") {
		if query.Get("v") == "" && parts[1] != "" {
			query.Set("v", parts[1])
		}
		parsed.Path = "/watch"
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}
	return u
}

func normalizeHostname(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func watchURLForID(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}

func playlistURLForID(id string) string {
	return "https://www.youtube.com/playlist?list=" + url.QueryEscape(id)
}

// redirectInfo builds the unresolved result both backends return for a watch
// URL inside a playlist, so the resolver can follow it to the container.
func redirectInfo(raw string) (*Info, bool) {
	container, ok := PlaylistRedirect(raw)
	if !ok {
		return nil, false
	}
	return &Info{
		Type:       InfoURL,
		WebpageURL: raw,
		URL:        container,
	}, true
}
