package playlist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/resolver"
)

// Resolver is the part of *resolver.Resolver the flattener needs.
type Resolver interface {
	Resolve(ctx context.Context, url string) (resolver.Resolved, error)
}

// foldState is carried from one input URL to the next.
type foldState struct {
	// seq is the last playlist sequence number handed out.
	seq int
	// pending is the member index a pointer asked for; 0 matches nothing.
	pending int
}

// Flattener expands URLs into records. One instance processes one batch
// sequentially; it is not safe for concurrent use.
type Flattener struct {
	resolver Resolver
	log      zerolog.Logger
	state    foldState
}

func NewFlattener(r Resolver, log zerolog.Logger) *Flattener {
	return &Flattener{resolver: r, log: log}
}

// Flatten resolves every URL in order. URLs that fail to resolve are logged
// and skipped. It stops early when ctx is cancelled.
func (f *Flattener) Flatten(ctx context.Context, urls []string) []Record {
	var out []Record
	for i, url := range urls {
		if ctx.Err() != nil {
			f.log.Warn().Err(ctx.Err()).Msg("URL analysis interrupted.")
			break
		}
		f.log.Info().Msgf("Url: %s", url)
		records, next, err := f.step(ctx, f.state, url, 0)
		f.state = next
		if err != nil {
			f.log.Warn().Err(err).Str("url", url).Msg("Failed to retrieve video metadata.")
			continue
		}
		out = append(out, records...)
		f.log.Info().Msgf("Progress: %d / %d", i+1, len(urls))
	}
	return out
}

// step resolves one URL. depth counts followed member pointers; a pointer
// whose container is itself a pointer is rejected.
func (f *Flattener) step(ctx context.Context, state foldState, url string, depth int) ([]Record, foldState, error) {
	res, err := f.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, state, err
	}
	switch r := res.(type) {
	case resolver.SingleVideo:
		return []Record{{URL: r.URL, Title: r.Title, DirectlySpecified: true}}, state, nil

	case resolver.PlaylistEntries:
		state.seq++
		records := make([]Record, len(r.Entries))
		for i, e := range r.Entries {
			position := i + 1
			records[i] = Record{
				URL:               e.URL,
				Title:             e.Title,
				Index:             position,
				PlaylistSeq:       state.seq,
				DirectlySpecified: position == state.pending,
			}
		}
		state.pending = 0
		return records, state, nil

	case resolver.PlaylistMemberPointer:
		if depth > 0 {
			state.pending = 0
			return nil, state, errs.Wrapf(errs.CategoryResolution, "playlist member %s points at another member", url)
		}
		state.pending = r.MemberIndex
		records, next, err := f.step(ctx, state, r.ContainerURL, depth+1)
		if err != nil {
			next.pending = 0
			f.log.Error().Str("url", url).Str("container", r.ContainerURL).Msg("Unexpected url.")
			return nil, next, err
		}
		return records, next, nil

	default:
		return nil, state, errs.Wrap(errs.CategoryResolution, fmt.Errorf("unexpected resolution %T for %s", res, url))
	}
}
