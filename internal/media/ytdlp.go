package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
)

// runFunc executes a prepared yt-dlp command against one URL.
type runFunc func(ctx context.Context, cmd *ytdlp.Command, rawURL string) (*ytdlp.Result, error)

func runCommand(ctx context.Context, cmd *ytdlp.Command, rawURL string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, rawURL)
}

// YtdlpProvider drives the yt-dlp executable.
type YtdlpProvider struct {
	cookieFile string
	log        zerolog.Logger
	run        runFunc
}

// NewYtdlpProvider returns a provider that passes cookieFile (optional) to
// every yt-dlp invocation.
func NewYtdlpProvider(cookieFile string, log zerolog.Logger) *YtdlpProvider {
	return &YtdlpProvider{cookieFile: cookieFile, log: log, run: runCommand}
}

// InstallYtdlp downloads a yt-dlp build when none is cached.
func InstallYtdlp(ctx context.Context, log zerolog.Logger) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	log.Debug().Str("path", resolved.Executable).Str("version", resolved.Version).Msg("yt-dlp ready")
	return nil
}

func (p *YtdlpProvider) Extract(ctx context.Context, rawURL string, mode ExtractMode) (*Info, error) {
	if info, ok := redirectInfo(rawURL); ok {
		return info, nil
	}
	cmd := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoWarnings()
	if mode == Flat {
		cmd = cmd.FlatPlaylist()
	}
	if p.cookieFile != "" {
		cmd = cmd.Cookies(p.cookieFile)
	}
	p.log.Debug().Str("url", rawURL).Stringer("mode", mode).Msg("extracting")
	res, err := p.run(ctx, cmd, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrExtraction, rawURL, commandError(res, err))
	}
	info, err := decodeInfo(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, rawURL, err)
	}
	return info, nil
}

func (p *YtdlpProvider) Fetch(ctx context.Context, rawURL, path string, opts FetchOptions) error {
	cmd := ytdlp.New().
		Format(opts.Format).
		Output(escapeTemplate(path)).
		NoPlaylist().
		NoProgress().
		NoWarnings()
	if opts.WriteThumbnail {
		cmd = cmd.WriteThumbnail()
	}
	if opts.FFmpegPath != "" {
		cmd = cmd.FFmpegLocation(opts.FFmpegPath)
	}
	cookieFile := opts.CookieFile
	if cookieFile == "" {
		cookieFile = p.cookieFile
	}
	if cookieFile != "" {
		cmd = cmd.Cookies(cookieFile)
	}
	res, err := p.run(ctx, cmd, rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrFetch, rawURL, commandError(res, err))
	}
	return nil
}

// decodeInfo reads the single JSON document printed by --dump-single-json.
func decodeInfo(stdout string) (*Info, error) {
	stdout = strings.TrimSpace(stdout)
	if stdout == "" {
		return nil, fmt.Errorf("yt-dlp printed no metadata")
	}
	var info Info
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if info.Type == "" {
		info.Type = InfoVideo
	}
	return &info, nil
}

// escapeTemplate keeps yt-dlp from expanding % sequences in a literal path.
func escapeTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}

func commandError(res *ytdlp.Result, err error) string {
	if res != nil {
		if msg := lastLine(res.Stderr); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
