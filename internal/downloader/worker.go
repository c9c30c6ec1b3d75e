package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/ffmpeg"
	"github.com/lvcoi/ytbatch/internal/filename"
	"github.com/lvcoi/ytbatch/internal/media"
)

// tmpEmbedSuffix is appended to the stem of the file ffmpeg writes while
// embedding a thumbnail.
const tmpEmbedSuffix = "IN_SET_THUMBNAIL"

// Fetcher downloads one URL to a path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, path string, opts media.FetchOptions) error
}

// MediaTool is the ffmpeg surface used by post-processing.
type MediaTool interface {
	Convert(ctx context.Context, src, dst string) error
	EmbedThumbnail(ctx context.Context, video, image, tmp string) error
}

// Settings are shared by every worker of a run.
type Settings struct {
	OutputDir string
	Mode      config.DownloadMode
	Thumbnail config.ThumbnailMode
	Fetch     media.FetchOptions
}

// Worker downloads and post-processes tasks one at a time.
type Worker struct {
	id       int
	fetcher  Fetcher
	tool     MediaTool
	settings Settings
	// opts is this worker's own copy of the fetch options.
	opts media.FetchOptions
	tag  func(path string, tags ffmpeg.Tags) error
	log  zerolog.Logger
}

// NewWorker returns a worker. tool may be nil when ffmpeg is unavailable.
func NewWorker(id int, fetcher Fetcher, tool MediaTool, settings Settings, log zerolog.Logger) *Worker {
	opts := settings.Fetch
	opts.WriteThumbnail = settings.Thumbnail.WritesThumbnail()
	return &Worker{
		id:       id,
		fetcher:  fetcher,
		tool:     tool,
		settings: settings,
		opts:     opts,
		tag:      ffmpeg.WriteID3,
		log:      log.With().Int("worker", id).Logger(),
	}
}

// Process downloads task and runs the post-processing the settings ask for.
// Download and conversion failures fail the task; thumbnail problems are
// logged only.
func (w *Worker) Process(ctx context.Context, task filename.Task) Result {
	path := filepath.Join(w.settings.OutputDir, task.Filename)
	res := Result{URL: task.URL, Filename: task.Filename}
	w.log.Info().Msgf("Filename: '%s'", stem(task.Filename))

	if err := w.fetcher.Fetch(ctx, task.URL, path, w.opts); err != nil {
		w.log.Error().Err(err).Msgf("Failed to download video. url: '%s', file_path: '%s'", task.URL, path)
		res.Err = errs.Wrap(errs.CategoryDownload, err)
		return res
	}

	final := path
	if w.settings.Mode.RequiresFFmpeg() {
		converted, err := w.convert(ctx, path, task)
		if err != nil {
			w.log.Error().Err(err).Str("url", task.URL).Msg("Error during converting extensions.")
			res.Err = err
			return res
		}
		final = converted
		res.Filename = filepath.Base(converted)
	}

	if w.settings.Thumbnail.NeedsProcessing() {
		w.processThumbnail(ctx, path, final)
	}

	if info, err := os.Stat(final); err == nil {
		res.Bytes = info.Size()
	}
	res.Success = true
	return res
}

// convert transcodes the download to the mode's container and removes the
// original.
func (w *Worker) convert(ctx context.Context, path string, task filename.Task) (string, error) {
	if w.tool == nil {
		return "", errs.Wrapf(errs.CategoryPostProcess, "%s requires ffmpeg", w.settings.Mode)
	}
	dst := strings.TrimSuffix(path, filepath.Ext(path)) + w.settings.Mode.ConvertExt()
	if err := w.tool.Convert(ctx, path, dst); err != nil {
		return "", errs.Wrap(errs.CategoryPostProcess, err)
	}
	if err := os.Remove(path); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("Could not remove the original file.")
	}
	if w.settings.Mode == config.ModeMP3 {
		tags := ffmpeg.Tags{Title: task.Title, Track: task.Index, Year: year(task.UploadDate)}
		if err := w.tag(dst, tags); err != nil {
			w.log.Warn().Err(err).Str("path", dst).Msg("Metadata tag embedding failed.")
		}
	}
	return dst, nil
}

// processThumbnail converts <stem>.webp next to the download to png and,
// for embed modes, muxes it into target. Failures are warnings.
func (w *Worker) processThumbnail(ctx context.Context, downloaded, target string) {
	if err := w.thumbnail(ctx, downloaded, target); err != nil {
		w.log.Warn().Err(errs.Wrap(errs.CategoryPostProcess, err)).Str("path", target).Msg("Error during thumbnail processing.")
	}
}

func (w *Worker) thumbnail(ctx context.Context, downloaded, target string) error {
	if w.tool == nil {
		return fmt.Errorf("thumbnail mode %s requires ffmpeg", w.settings.Thumbnail)
	}
	base := strings.TrimSuffix(downloaded, filepath.Ext(downloaded))
	webp := base + config.ExtThumbnail
	png := base + config.ExtPNG
	if err := w.tool.Convert(ctx, webp, png); err != nil {
		return fmt.Errorf("convert thumbnail: %w", err)
	}
	if err := os.Remove(webp); err != nil {
		w.log.Debug().Err(err).Str("path", webp).Msg("Could not remove the webp thumbnail.")
	}
	if !w.settings.Thumbnail.Embeds() {
		return nil
	}
	if w.settings.Mode.IsAudio() {
		w.log.Warn().Msg("Image cannot be embedded in audio files. A image is saved instead.")
		return nil
	}

	ext := filepath.Ext(target)
	tmp := strings.TrimSuffix(target, ext) + tmpEmbedSuffix + ext
	if err := w.tool.EmbedThumbnail(ctx, target, png, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("set thumbnail: %w", err)
	}
	w.log.Debug().Msgf("old -> new '%s'->'%s'.", tmp, target)
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	if !w.settings.Thumbnail.KeepsPNG() {
		if err := os.Remove(png); err != nil {
			w.log.Debug().Err(err).Str("path", png).Msg("Could not remove the png thumbnail.")
		}
	}
	return nil
}

func stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// year returns the YYYY prefix of a YYYYMMDD date.
func year(date string) string {
	if len(date) < 4 || date == filename.DateError {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}
