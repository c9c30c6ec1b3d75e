package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/downloader"
	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/media"
	"github.com/lvcoi/ytbatch/internal/playlist"
)

type fakeProvider struct {
	extract func(ctx context.Context, rawURL string, mode media.ExtractMode) (*media.Info, error)
	fetch   func(ctx context.Context, rawURL, path string, opts media.FetchOptions) error
}

func (f *fakeProvider) Extract(ctx context.Context, rawURL string, mode media.ExtractMode) (*media.Info, error) {
	return f.extract(ctx, rawURL, mode)
}

func (f *fakeProvider) Fetch(ctx context.Context, rawURL, path string, opts media.FetchOptions) error {
	return f.fetch(ctx, rawURL, path, opts)
}

type fakeSetup struct {
	dir       string
	ffmpeg    string
	urls      []string
	mode      config.DownloadMode
	thumbnail config.ThumbnailMode
	format    config.FileNameFormat
	modeAsked bool
}

func (s *fakeSetup) OutputDir(string) (string, error) { return s.dir, nil }
func (s *fakeSetup) FFmpeg(context.Context, string) (string, error) {
	return s.ffmpeg, nil
}
func (s *fakeSetup) URLs(initial []string) ([]string, error) {
	if len(initial) > 0 {
		return initial, nil
	}
	return s.urls, nil
}
func (s *fakeSetup) DownloadMode(bool) (config.DownloadMode, error) {
	s.modeAsked = true
	return s.mode, nil
}
func (s *fakeSetup) ThumbnailMode(config.DownloadMode, bool) (config.ThumbnailMode, error) {
	return s.thumbnail, nil
}
func (s *fakeSetup) FileNameFormat() (config.FileNameFormat, error) { return s.format, nil }

type fakeSelector struct {
	selectFn func(ctx context.Context, label string, group playlist.Group) ([]bool, error)
}

func (f *fakeSelector) Select(ctx context.Context, label string, group playlist.Group) ([]bool, error) {
	return f.selectFn(ctx, label, group)
}

const (
	playlistURL = "https://www.youtube.com/playlist?list=PL1"
	videoURL    = "https://www.youtube.com/watch?v=solo"
)

// catalog answers flat extractions for one playlist of three entries and one
// standalone video, and full extractions with an upload date.
func catalog(_ context.Context, rawURL string, mode media.ExtractMode) (*media.Info, error) {
	if mode == media.Full {
		return &media.Info{Type: media.InfoVideo, UploadDate: "2023-04-05"}, nil
	}
	switch rawURL {
	case playlistURL:
		return &media.Info{Type: media.InfoPlaylist, Title: "PL", Entries: []media.Entry{
			{URL: "https://www.youtube.com/watch?v=p1", Title: "First"},
			{URL: "https://www.youtube.com/watch?v=p2", Title: media.PrivateVideoTitle},
			{URL: "https://www.youtube.com/watch?v=p3", Title: "Third"},
		}}, nil
	case videoURL:
		return &media.Info{Type: media.InfoVideo, Title: "Solo Video", WebpageURL: videoURL}, nil
	}
	return nil, media.ErrExtraction
}

type fetchLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *fetchLog) fetch(_ context.Context, _, path string, _ media.FetchOptions) error {
	l.mu.Lock()
	l.paths = append(l.paths, filepath.Base(path))
	l.mu.Unlock()
	return os.WriteFile(path, []byte("data"), 0o644)
}

func (l *fetchLog) sorted() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]string(nil), l.paths...)
	sort.Strings(out)
	return out
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	fetched := &fetchLog{}
	var labels []string
	deps := Deps{
		Provider: &fakeProvider{extract: catalog, fetch: fetched.fetch},
		Setup: &fakeSetup{
			dir:    dir,
			urls:   []string{videoURL, playlistURL, "https://broken.example"},
			mode:   config.ModeHigh,
			format: config.NameDTX,
		},
		Selector: &fakeSelector{selectFn: func(_ context.Context, label string, group playlist.Group) ([]bool, error) {
			labels = append(labels, label)
			return []bool{true, false, true}, nil
		}},
		Log: zerolog.Nop(),
	}
	cfg := config.Config{Jobs: 2, Backend: config.BackendYtdlp}

	report, err := Run(context.Background(), cfg, nil, deps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Successes != 3 || report.Failures != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(labels) != 1 || labels[0] != "Playlist for the 1 / 1." {
		t.Errorf("labels = %v", labels)
	}
	want := []string{"20230405,First,1.mp4", "20230405,SoloVideo.mp4", "20230405,Third,3.mp4"}
	if got := fetched.sorted(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("fetched %v, want %v", got, want)
	}
}

func TestRunNothingSelected(t *testing.T) {
	setup := &fakeSetup{dir: t.TempDir(), urls: []string{playlistURL}}
	deps := Deps{
		Provider: &fakeProvider{extract: catalog, fetch: func(context.Context, string, string, media.FetchOptions) error {
			t.Error("nothing should be fetched")
			return nil
		}},
		Setup: setup,
		Selector: &fakeSelector{selectFn: func(context.Context, string, playlist.Group) ([]bool, error) {
			return []bool{false, false, false}, nil
		}},
		Log: zerolog.Nop(),
	}
	_, err := Run(context.Background(), config.Config{Jobs: 1, Backend: config.BackendYtdlp}, nil, deps)
	if !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("err = %v, want ErrNothingSelected", err)
	}
	if setup.modeAsked {
		t.Error("modes must not be asked when nothing is selected")
	}
}

func TestRunReportsFailures(t *testing.T) {
	deps := Deps{
		Provider: &fakeProvider{extract: catalog, fetch: func(_ context.Context, rawURL, _ string, _ media.FetchOptions) error {
			if strings.HasSuffix(rawURL, "p3") {
				return media.ErrFetch
			}
			return nil
		}},
		Setup: &fakeSetup{dir: t.TempDir(), mode: config.ModeHigh, format: config.NameT},
		Selector: &fakeSelector{selectFn: func(context.Context, string, playlist.Group) ([]bool, error) {
			return []bool{true, false, true}, nil
		}},
		Log: zerolog.Nop(),
	}
	report, err := Run(context.Background(), config.Config{Jobs: 4, Backend: config.BackendYtdlp}, []string{playlistURL}, deps)
	if !errs.Is(err, errs.CategoryDownload) {
		t.Fatalf("err = %v, want download category", err)
	}
	if report.Successes != 1 || report.Failures != 1 || report.Failed[0] != "https://www.youtube.com/watch?v=p3" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunRejectsFFmpegModeWithoutFFmpeg(t *testing.T) {
	deps := Deps{
		Provider: &fakeProvider{extract: catalog, fetch: func(context.Context, string, string, media.FetchOptions) error { return nil }},
		Setup:    &fakeSetup{dir: t.TempDir(), mode: config.ModeWAV},
		Selector: &fakeSelector{},
		Log:      zerolog.Nop(),
	}
	_, err := Run(context.Background(), config.Config{Jobs: 1, Backend: config.BackendYtdlp}, []string{videoURL}, deps)
	if errs.ExitCode(err) != 2 {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

type nopTool struct{}

func (nopTool) Convert(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (nopTool) EmbedThumbnail(context.Context, string, string, string) error { return nil }

func TestRunUsesToolForConversion(t *testing.T) {
	dir := t.TempDir()
	var toolPath string
	deps := Deps{
		Provider: &fakeProvider{extract: catalog, fetch: func(_ context.Context, _, path string, _ media.FetchOptions) error {
			return os.WriteFile(path, []byte("audio"), 0o644)
		}},
		Setup:    &fakeSetup{dir: dir, ffmpeg: "/usr/bin/ffmpeg", mode: config.ModeWAV},
		Selector: &fakeSelector{},
		NewTool: func(path string) downloader.MediaTool {
			toolPath = path
			return nopTool{}
		},
		Log: zerolog.Nop(),
	}
	if _, err := Run(context.Background(), config.Config{Jobs: 1, Backend: config.BackendYtdlp}, []string{videoURL}, deps); err != nil {
		t.Fatal(err)
	}
	if toolPath != "/usr/bin/ffmpeg" {
		t.Errorf("tool path = %q", toolPath)
	}
	if _, err := os.Stat(filepath.Join(dir, "SoloVideo.wav")); err != nil {
		t.Errorf("converted file missing: %v", err)
	}
}
