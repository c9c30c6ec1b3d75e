package selection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/playlist"
)

// Selector asks the user for the selection mask of one playlist group.
type Selector interface {
	Select(ctx context.Context, label string, group playlist.Group) ([]bool, error)
}

// LinePrompt is the Selector for non-interactive terminals and piped input.
// in is shared with the other setup prompts so no buffered input is lost.
type LinePrompt struct {
	in  *bufio.Reader
	out io.Writer
	log zerolog.Logger
}

func NewLinePrompt(in *bufio.Reader, out io.Writer, log zerolog.Logger) *LinePrompt {
	return &LinePrompt{in: in, out: out, log: log}
}

func (p *LinePrompt) Select(ctx context.Context, label string, group playlist.Group) ([]bool, error) {
	session := NewSession(group)
	fmt.Fprintln(p.out, label)
	for _, line := range session.Listing() {
		fmt.Fprintln(p.out, line)
	}
	fmt.Fprintln(p.out, Usage)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(p.out, "  > ")
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)
		if eof && strings.TrimSpace(line) == "" {
			p.log.Warn().Msg("Input closed; finishing range selection with the current choice.")
			line = "f"
		}
		outcome := session.Apply(line)
		p.render(outcome.Messages)
		if outcome.Done {
			return outcome.Mask, nil
		}
		if eof {
			p.log.Warn().Msg("Input closed; finishing range selection with the current choice.")
			outcome = session.Apply("f")
			p.render(outcome.Messages)
			return outcome.Mask, nil
		}
	}
}

func (p *LinePrompt) render(messages []Message) {
	for _, m := range messages {
		switch m.Kind {
		case Info:
			p.log.Info().Msg(m.Text)
		case Warning:
			p.log.Warn().Msg(m.Text)
		default:
			fmt.Fprintln(p.out, m.Text)
		}
	}
}
