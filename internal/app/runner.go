// Package app wires the stages of a run together: setup, URL analysis,
// playlist range selection, file naming and the download pool.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/downloader"
	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/ffmpeg"
	"github.com/lvcoi/ytbatch/internal/filename"
	"github.com/lvcoi/ytbatch/internal/media"
	"github.com/lvcoi/ytbatch/internal/playlist"
	"github.com/lvcoi/ytbatch/internal/resolver"
	"github.com/lvcoi/ytbatch/internal/selection"
)

// Setup asks for the interactive part of the configuration.
// *prompt.Prompter implements it.
type Setup interface {
	OutputDir(configured string) (string, error)
	FFmpeg(ctx context.Context, configured string) (string, error)
	URLs(initial []string) ([]string, error)
	DownloadMode(canUseFFmpeg bool) (config.DownloadMode, error)
	ThumbnailMode(mode config.DownloadMode, canUseFFmpeg bool) (config.ThumbnailMode, error)
	FileNameFormat() (config.FileNameFormat, error)
}

// Deps are the collaborators of a run.
type Deps struct {
	Provider media.Provider
	Setup    Setup
	Selector selection.Selector
	// NewTool returns the ffmpeg wrapper for a verified path. Defaults to
	// ffmpeg.New.
	NewTool func(path string) downloader.MediaTool
	Log     zerolog.Logger
}

// ErrNothingSelected ends a run that has nothing to download.
var ErrNothingSelected = errors.New("nothing selected")

// Run performs one batch: it completes cfg through deps.Setup, resolves
// urls, lets the user pick playlist ranges and downloads the result. The
// returned error carries the download category when any task failed.
func Run(ctx context.Context, cfg config.Config, urls []string, deps Deps) (downloader.Report, error) {
	log := deps.Log
	cfg, urls, err := setup(ctx, cfg, urls, deps.Setup)
	if err != nil {
		return downloader.Report{}, err
	}

	res := resolver.New(deps.Provider, log)
	items, err := collect(ctx, res, urls, deps.Selector, log)
	if err != nil {
		return downloader.Report{}, err
	}
	if len(items) == 0 {
		log.Info().Msg("Video was not selected or failed to retrieve information. Therefore, it is terminated.")
		return downloader.Report{}, ErrNothingSelected
	}

	if cfg, err = chooseModes(cfg, deps.Setup); err != nil {
		return downloader.Report{}, err
	}

	tasks, err := filename.NewAssembler(res, cfg.Jobs, log).Assemble(ctx, items, cfg.FileNameFormat, cfg.DownloadMode)
	if err != nil {
		return downloader.Report{}, err
	}

	pool := newPool(cfg, deps)
	report := downloader.Aggregate(pool.Run(ctx, tasks))
	report.Log(log)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	if report.Failures > 0 {
		return report, errs.Wrapf(errs.CategoryDownload, "%d of %d downloads failed", report.Failures, len(tasks))
	}
	return report, nil
}

func setup(ctx context.Context, cfg config.Config, urls []string, s Setup) (config.Config, []string, error) {
	var err error
	if cfg.OutputDir, err = s.OutputDir(cfg.OutputDir); err != nil {
		return cfg, nil, err
	}
	if cfg.FFmpegPath, err = s.FFmpeg(ctx, cfg.FFmpegPath); err != nil {
		return cfg, nil, err
	}
	if urls, err = s.URLs(urls); err != nil {
		return cfg, nil, err
	}
	return cfg, urls, nil
}

func chooseModes(cfg config.Config, s Setup) (config.Config, error) {
	var err error
	ffmpegOK := cfg.CanUseFFmpeg()
	if cfg.DownloadMode, err = s.DownloadMode(ffmpegOK); err != nil {
		return cfg, err
	}
	if cfg.ThumbnailMode, err = s.ThumbnailMode(cfg.DownloadMode, ffmpegOK); err != nil {
		return cfg, err
	}
	if cfg.FileNameFormat, err = s.FileNameFormat(); err != nil {
		return cfg, err
	}
	if err := cfg.CheckFeatures(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// collect flattens urls and turns the standalone videos and the selected
// playlist members into items.
func collect(ctx context.Context, res *resolver.Resolver, urls []string, sel selection.Selector, log zerolog.Logger) ([]filename.Item, error) {
	log.Info().Msg("Start parsing the urls.")
	records := playlist.NewFlattener(res, log).Flatten(ctx, urls)
	log.Info().Msg("Finish parsing the urls.")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups, standalone := playlist.Partition(records)
	items := make([]filename.Item, 0, len(records))
	for _, r := range standalone {
		items = append(items, filename.Item{URL: r.URL, Title: r.Title})
	}
	if len(groups) == 0 {
		return items, nil
	}

	log.Info().Msgf("%d playlists are included in urls.", len(groups))
	for i, group := range groups {
		label := fmt.Sprintf("Playlist for the %d / %d.", i+1, len(groups))
		mask, err := sel.Select(ctx, label, group)
		if errors.Is(err, selection.ErrCancelled) {
			log.Warn().Msgf("%s Selection cancelled; nothing is downloaded from it.", label)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, r := range selection.Selected(group, mask) {
			items = append(items, filename.Item{URL: r.URL, Title: r.Title, Index: r.Index})
		}
	}
	return items, nil
}

func newPool(cfg config.Config, deps Deps) *downloader.Pool {
	settings := downloader.Settings{
		OutputDir: cfg.OutputDir,
		Mode:      cfg.DownloadMode,
		Thumbnail: cfg.ThumbnailMode,
		Fetch: media.FetchOptions{
			Format:     cfg.DownloadMode.FormatSelector(),
			CookieFile: cfg.CookieFile,
			FFmpegPath: cfg.FFmpegPath,
		},
	}
	var tool downloader.MediaTool
	if cfg.CanUseFFmpeg() {
		newTool := deps.NewTool
		if newTool == nil {
			newTool = func(path string) downloader.MediaTool { return ffmpeg.New(path) }
		}
		tool = newTool(cfg.FFmpegPath)
	}
	return &downloader.Pool{
		Workers: cfg.Jobs,
		NewWorker: func(id int) *downloader.Worker {
			return downloader.NewWorker(id, deps.Provider, tool, settings, deps.Log)
		},
		Log: deps.Log,
	}
}
