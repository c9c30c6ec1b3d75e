// Package resolver classifies a URL by the metadata the media provider
// returns for it: a playlist with entries, a single video, or a watch URL
// that points at one member of a playlist.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/media"
)

var (
	memberIndexRegex = regexp.MustCompile(`[?&]index=(\d+)`)
	compactDateRegex = regexp.MustCompile(`^\d{8}$`)
)

// Resolved is one of PlaylistEntries, SingleVideo or PlaylistMemberPointer.
type Resolved interface {
	resolved()
}

// PlaylistEntries lists the members of a playlist in playlist order.
type PlaylistEntries struct {
	Title   string
	Entries []media.Entry
}

// SingleVideo is a video outside any playlist.
type SingleVideo struct {
	URL   string
	Title string
}

// PlaylistMemberPointer is a watch URL inside a playlist. MemberIndex is the
// 1-based position of the video, or 0 when the URL did not carry one.
type PlaylistMemberPointer struct {
	ContainerURL string
	MemberIndex  int
}

func (PlaylistEntries) resolved()       {}
func (SingleVideo) resolved()           {}
func (PlaylistMemberPointer) resolved() {}

// Resolver turns URLs into Resolved values through a media.Provider.
type Resolver struct {
	provider media.Provider
	log      zerolog.Logger
}

func New(provider media.Provider, log zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Resolve performs a flat extraction of rawURL.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Resolved, error) {
	info, err := r.provider.Extract(ctx, rawURL, media.Flat)
	if err != nil {
		return nil, errs.Wrap(errs.CategoryResolution, err)
	}
	if info.Entries != nil {
		return PlaylistEntries{Title: info.Title, Entries: info.Entries}, nil
	}
	if isMemberPointer(info) {
		if info.URL == "" {
			return nil, errs.Wrapf(errs.CategoryResolution, "playlist member %s has no container URL", rawURL)
		}
		index := memberIndex(info.WebpageURL)
		if index == 0 {
			r.log.Error().Str("webpage_url", info.WebpageURL).Msg("Failure to retrieve index from playlist.")
		}
		return PlaylistMemberPointer{ContainerURL: info.URL, MemberIndex: index}, nil
	}
	url := info.WebpageURL
	if url == "" {
		url = rawURL
	}
	return SingleVideo{URL: url, Title: info.Title}, nil
}

func isMemberPointer(info *media.Info) bool {
	if info.Type == media.InfoURL {
		return true
	}
	return strings.Contains(info.WebpageURL, "&list=")
}

// memberIndex returns the index query parameter, or 0 if it is missing.
func memberIndex(webpageURL string) int {
	m := memberIndexRegex.FindStringSubmatch(webpageURL)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// UploadDate performs a full extraction of a single video and returns its
// upload date as YYYYMMDD.
func (r *Resolver) UploadDate(ctx context.Context, rawURL string) (string, error) {
	info, err := r.provider.Extract(ctx, rawURL, media.Full)
	if err != nil {
		return "", errs.Wrap(errs.CategoryResolution, err)
	}
	date, err := NormalizeDate(info.UploadDate)
	if err != nil {
		return "", errs.Wrap(errs.CategoryResolution, fmt.Errorf("%s: %w", rawURL, err))
	}
	return date, nil
}

// NormalizeDate converts a date in any common layout to YYYYMMDD.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("no upload date")
	}
	if compactDateRegex.MatchString(value) {
		return value, nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return "", fmt.Errorf("unable to parse date: %s", value)
	}
	return t.Format("20060102"), nil
}
