// Package ffmpeg wraps the external ffmpeg executable: version probing,
// container conversion and thumbnail muxing. Every call is an isolated
// subprocess.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// runFunc executes name with args and returns combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runProcess(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Tool runs one configured ffmpeg binary.
type Tool struct {
	path string
	run  runFunc
}

// New returns a Tool for the binary at path.
func New(path string) *Tool {
	return &Tool{path: path, run: runProcess}
}

func (t *Tool) Path() string {
	return t.path
}

// Version runs `ffmpeg -version` and returns the first output line.
func (t *Tool) Version(ctx context.Context) (string, error) {
	if t.path == "" {
		return "", fmt.Errorf("ffmpeg path is empty")
	}
	out, err := t.run(ctx, t.path, "-version")
	if err != nil {
		return "", fmt.Errorf("run %s -version: %w", t.path, err)
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if !strings.HasPrefix(first, "ffmpeg") {
		return "", fmt.Errorf("%s does not look like ffmpeg", t.path)
	}
	return strings.TrimSpace(first), nil
}

// Convert transcodes src into dst, choosing the codec from dst's extension.
// dst is overwritten.
func (t *Tool) Convert(ctx context.Context, src, dst string) error {
	args := ffmpeg.Input(src).
		Output(dst, convertArgs(dst)).
		OverWriteOutput().
		GetArgs()
	return t.exec(ctx, args)
}

func convertArgs(dst string) ffmpeg.KwArgs {
	switch strings.ToLower(filepath.Ext(dst)) {
	case ".mp3":
		return ffmpeg.KwArgs{"vn": "", "acodec": "libmp3lame", "q:a": "2"}
	case ".wav":
		return ffmpeg.KwArgs{"vn": ""}
	default:
		return ffmpeg.KwArgs{}
	}
}

// EmbedThumbnail writes video with image attached as cover art to tmp.
// The caller replaces video with tmp.
func (t *Tool) EmbedThumbnail(ctx context.Context, video, image, tmp string) error {
	return t.exec(ctx, []string{
		"-y",
		"-i", video,
		"-i", image,
		"-c", "copy",
		"-map", "1",
		"-map", "0",
		"-disposition:v:0", "attached_pic",
		tmp,
	})
}

func (t *Tool) exec(ctx context.Context, args []string) error {
	if t.path == "" {
		return fmt.Errorf("ffmpeg is not configured")
	}
	out, err := t.run(ctx, t.path, args...)
	if err != nil {
		if msg := lastLine(out); msg != "" {
			return fmt.Errorf("ffmpeg: %s: %w", msg, err)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
