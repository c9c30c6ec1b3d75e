// Package media is the boundary to the site: metadata extraction and media
// fetching. Two backends implement Provider: one drives the yt-dlp binary,
// the other talks to YouTube directly.
package media

import (
	"context"
	"errors"
)

// PrivateVideoTitle is the title the site reports for entries the user
// cannot access.
const PrivateVideoTitle = "[Private video]"

// ExtractMode selects how much metadata is fetched.
type ExtractMode int

const (
	// Flat lists playlist entries without per-video metadata.
	Flat ExtractMode = iota
	// Full fetches every field, including the upload date.
	Full
)

func (m ExtractMode) String() string {
	if m == Full {
		return "full"
	}
	return "flat"
}

// InfoType mirrors the `_type` field of an extraction result.
type InfoType string

const (
	InfoVideo    InfoType = "video"
	InfoPlaylist InfoType = "playlist"
	// InfoURL is an unresolved reference to another URL, e.g. a watch page
	// that sits inside a playlist.
	InfoURL InfoType = "url"
)

// Entry is one member of a flat playlist.
type Entry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Info is the subset of extraction output the pipeline consumes.
type Info struct {
	Type       InfoType `json:"_type"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	WebpageURL string   `json:"webpage_url"`
	URL        string   `json:"url"`
	UploadDate string   `json:"upload_date"`
	// Entries is nil unless the result is a playlist.
	Entries []Entry `json:"entries"`
}

// FetchOptions are the per-download options. Workers keep a private copy.
type FetchOptions struct {
	// Format is a format selector such as "best[height<=720][fps<=30]".
	Format         string
	WriteThumbnail bool
	CookieFile     string
	FFmpegPath     string
}

// Provider extracts metadata and fetches media.
type Provider interface {
	Extract(ctx context.Context, rawURL string, mode ExtractMode) (*Info, error)
	// Fetch writes the media selected by opts.Format to path. When
	// opts.WriteThumbnail is set the thumbnail is written next to it with
	// the .webp extension.
	Fetch(ctx context.Context, rawURL, path string, opts FetchOptions) error
}

var (
	// ErrExtraction marks a failed metadata lookup.
	ErrExtraction = errors.New("extraction failed")
	// ErrFetch marks a failed media download.
	ErrFetch = errors.New("download failed")
	// ErrNoFormat is returned when no format matches the selector.
	ErrNoFormat = errors.New("requested format is not available")
)
