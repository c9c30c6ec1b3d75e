package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// YouTubeClient is the part of *youtube.Client the native provider uses.
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ YouTubeClient = (*youtube.Client)(nil)

// NativeProvider talks to YouTube without external binaries. It cannot merge
// separate audio and video streams, so merge alternatives of a selector are
// skipped.
type NativeProvider struct {
	client YouTubeClient
	http   *http.Client
	log    zerolog.Logger
}

// NewNativeProvider builds a client whose requests carry the cookies from
// cookieFile (optional) and retry transient failures.
func NewNativeProvider(cookieFile string, timeout time.Duration, log zerolog.Logger) (*NativeProvider, error) {
	httpClient := &http.Client{
		Transport: newSiteTransport(http.DefaultTransport, siteRetry),
		Timeout:   timeout,
	}
	if cookieFile != "" {
		jar, err := LoadCookieFile(cookieFile)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}
	return &NativeProvider{
		client: &youtube.Client{HTTPClient: httpClient},
		http:   httpClient,
		log:    log,
	}, nil
}

func (p *NativeProvider) Extract(ctx context.Context, rawURL string, mode ExtractMode) (*Info, error) {
	if info, ok := redirectInfo(rawURL); ok {
		return info, nil
	}
	if LooksLikePlaylist(rawURL) {
		return p.extractPlaylist(ctx, rawURL)
	}
	video, err := p.client.GetVideoContext(ctx, NormalizeYouTubeURL(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, rawURL, err)
	}
	info := &Info{
		Type:       InfoVideo,
		ID:         video.ID,
		Title:      video.Title,
		WebpageURL: watchURLForID(video.ID),
		URL:        watchURLForID(video.ID),
	}
	if mode == Full && !video.PublishDate.IsZero() {
		info.UploadDate = video.PublishDate.Format("20060102")
	}
	return info, nil
}

func (p *NativeProvider) extractPlaylist(ctx context.Context, rawURL string) (*Info, error) {
	playlist, err := p.client.GetPlaylistContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, rawURL, err)
	}
	info := &Info{
		Type:       InfoPlaylist,
		ID:         playlist.ID,
		Title:      playlist.Title,
		WebpageURL: playlistURLForID(playlist.ID),
		Entries:    make([]Entry, 0, len(playlist.Videos)),
	}
	for _, v := range playlist.Videos {
		if v == nil || v.ID == "" {
			info.Entries = append(info.Entries, Entry{Title: PrivateVideoTitle})
			continue
		}
		title := v.Title
		if title == "" {
			title = PrivateVideoTitle
		}
		info.Entries = append(info.Entries, Entry{
			ID:    v.ID,
			URL:   watchURLForID(v.ID),
			Title: title,
		})
	}
	return info, nil
}

func (p *NativeProvider) Fetch(ctx context.Context, rawURL, path string, opts FetchOptions) error {
	sel, err := ParseSelector(opts.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	video, err := p.client.GetVideoContext(ctx, NormalizeYouTubeURL(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	formats := make([]Format, len(video.Formats))
	for i, f := range video.Formats {
		formats[i] = formatFromYouTube(f)
	}
	chosen, err := sel.Select(formats)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	var source *youtube.Format
	for i := range video.Formats {
		if strconv.Itoa(video.Formats[i].ItagNo) == chosen.ID {
			source = &video.Formats[i]
			break
		}
	}
	if source == nil {
		return fmt.Errorf("%w: %s: itag %s vanished", ErrFetch, rawURL, chosen.ID)
	}
	p.log.Debug().Str("url", rawURL).Str("itag", chosen.ID).Str("ext", chosen.Ext).Msg("selected format")

	stream, _, err := p.client.GetStreamContext(ctx, video, source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	defer stream.Close()
	if err := writeAtomically(path, stream); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}

	if opts.WriteThumbnail {
		thumb := strings.TrimSuffix(path, filepath.Ext(path)) + ".webp"
		if err := p.fetchThumbnail(ctx, video.Thumbnails, thumb); err != nil {
			p.log.Warn().Err(err).Str("url", rawURL).Msg("Failed to write thumbnail.")
		}
	}
	return nil
}

// fetchThumbnail saves the largest thumbnail. The file keeps the .webp name
// whatever the served format is; ffmpeg probes the content when converting.
func (p *NativeProvider) fetchThumbnail(ctx context.Context, thumbs youtube.Thumbnails, dst string) error {
	thumbURL := largestThumbnail(thumbs)
	if thumbURL == "" {
		return fmt.Errorf("no thumbnail available")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thumbnail request: %s", resp.Status)
	}
	return writeAtomically(dst, resp.Body)
}

func largestThumbnail(thumbs youtube.Thumbnails) string {
	best := ""
	var bestArea uint
	for _, t := range thumbs {
		area := t.Width * t.Height
		if best == "" || area > bestArea {
			best, bestArea = t.URL, area
		}
	}
	return best
}

// writeAtomically streams r into path through a .part file.
func writeAtomically(path string, r io.Reader) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func formatFromYouTube(f youtube.Format) Format {
	out := Format{
		ID:       strconv.Itoa(f.ItagNo),
		Ext:      extForMime(f.MimeType),
		Width:    f.Width,
		Height:   f.Height,
		FPS:      f.FPS,
		TBR:      float64(f.Bitrate) / 1000,
		HasAudio: f.AudioChannels > 0,
		HasVideo: f.Width > 0 || f.Height > 0 || strings.HasPrefix(strings.ToLower(f.MimeType), "video/"),
	}
	if out.HasAudio {
		br := f.AverageBitrate
		if br == 0 {
			br = f.Bitrate
		}
		out.ABR = float64(br) / 1000
		out.ASR, _ = strconv.Atoi(f.AudioSampleRate)
	}
	return out
}
