// Package prompt asks the user for the settings of a run: where to save,
// which ffmpeg to use, which URLs to fetch and how to name and post-process
// the files.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/ffmpeg"
)

const marker = "  > "

// ErrInputClosed is returned when stdin ends before a question is answered.
var ErrInputClosed = errs.Wrap(errs.CategoryConfig, errors.New("input closed before setup finished"))

// ProbeFunc checks that path is a working ffmpeg executable.
type ProbeFunc func(ctx context.Context, path string) error

// Prompter asks its questions on out and reads the answers from in. in is
// shared with the range selection prompt.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	log   zerolog.Logger
	probe ProbeFunc
}

func New(in *bufio.Reader, out io.Writer, log zerolog.Logger) *Prompter {
	return &Prompter{in: in, out: out, log: log, probe: probeFFmpeg}
}

func probeFFmpeg(ctx context.Context, path string) error {
	_, err := ffmpeg.New(path).Version(ctx)
	return err
}

// ask prints question (if any) and the input marker and returns the trimmed
// answer.
func (p *Prompter) ask(question string) (string, error) {
	if question != "" {
		fmt.Fprint(p.out, question)
	} else {
		fmt.Fprint(p.out, marker)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return "", ErrInputClosed
		}
	}
	return strings.TrimSpace(line), nil
}

// Agree asks a yes/no question until it gets an answer.
func (p *Prompter) Agree(message string) (bool, error) {
	const opts = "<y/n>"
	for {
		answer, err := p.ask(fmt.Sprintf("%s %s ", message, opts))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		p.log.Warn().Msgf("'%s' is an invalid input. Please enter %s.", answer, opts)
	}
}

// FFmpeg returns a usable ffmpeg path, or "" when the user continues without
// one. configured is tried first, then ffmpeg on PATH.
func (p *Prompter) FFmpeg(ctx context.Context, configured string) (string, error) {
	candidates := []string{configured}
	if configured == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			candidates = []string{found}
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p.log.Debug().Msgf("ffmpeg path: '%s'.", c)
		if err := p.probe(ctx, c); err == nil {
			p.log.Info().Msgf("'%s' is selected as the location for 'ffmpeg'.", c)
			return c, nil
		}
	}

	ok, err := p.Agree("Do you want to use ffmpeg to make all functions available?")
	if err != nil || !ok {
		return "", err
	}
	for {
		path, err := p.ask("Enter the path of 'ffmpeg'. Leave empty to continue without it. ")
		if err != nil {
			return "", err
		}
		path = strings.Trim(path, " \"'")
		if path == "" {
			p.log.Info().Msg("Continuing without ffmpeg.")
			return "", nil
		}
		if err := p.probe(ctx, path); err != nil {
			p.log.Warn().Err(err).Msgf("'%s' is not available.", path)
			continue
		}
		p.log.Info().Msgf("'%s' is selected as the location for 'ffmpeg'.", path)
		return path, nil
	}
}
