// Package filename builds output file names from the title, upload date and
// playlist index of each selected item.
package filename

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lvcoi/ytbatch/internal/config"
)

const (
	delimiter = ","
	// DateError stands in for an upload date that could not be fetched.
	DateError = "ERROR"
	// fallbackStem is used when every chosen field is empty.
	fallbackStem = "video"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// Item is one selected video.
type Item struct {
	URL   string
	Title string
	Index int
}

// Task pairs a URL with the file name it is saved under.
type Task struct {
	URL      string
	Filename string
	// Title and Index travel along for tagging converted audio.
	Title string
	Index int
	// UploadDate is set when the format includes the date.
	UploadDate string
}

// DateLookup fetches the upload date of one video as YYYYMMDD.
type DateLookup interface {
	UploadDate(ctx context.Context, url string) (string, error)
}

type Assembler struct {
	dates DateLookup
	// Jobs bounds the concurrent date lookups.
	Jobs int
	log  zerolog.Logger
}

func NewAssembler(dates DateLookup, jobs int, log zerolog.Logger) *Assembler {
	return &Assembler{dates: dates, Jobs: jobs, log: log}
}

// Assemble returns one Task per item in item order. The only error is an
// unknown format.
func (a *Assembler) Assemble(ctx context.Context, items []Item, format config.FileNameFormat, mode config.DownloadMode) ([]Task, error) {
	order, err := format.Order()
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, f := range order {
		if f == config.FieldUploadDate {
			dates = a.fetchDates(ctx, items)
			break
		}
	}

	tasks := make([]Task, len(items))
	for i, item := range items {
		date := ""
		if dates != nil {
			date = dates[i]
		}
		tasks[i] = Task{
			URL:        item.URL,
			Filename:   Build(order, item, date, mode),
			Title:      item.Title,
			Index:      item.Index,
			UploadDate: date,
		}
	}
	return tasks, nil
}

// fetchDates looks up every date with at most Jobs requests in flight.
// Failed lookups yield DateError.
func (a *Assembler) fetchDates(ctx context.Context, items []Item) []string {
	a.log.Info().Msg("Start getting the upload date.")
	dates := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if a.Jobs > 0 {
		g.SetLimit(a.Jobs)
	}
	for i, item := range items {
		g.Go(func() error {
			date, err := a.dates.UploadDate(gctx, item.URL)
			if err != nil {
				a.log.Warn().Err(err).Str("url", item.URL).Msg("Failed to retrieve video metadata.")
				date = DateError
			}
			dates[i] = date
			return nil
		})
	}
	_ = g.Wait()
	a.log.Info().Msg("Finish getting the upload date.")
	return dates
}

// Build joins the fields of order for one item and appends the extension of
// mode. An index of 0 is left out.
func Build(order []config.Field, item Item, date string, mode config.DownloadMode) string {
	var b strings.Builder
	for _, f := range order {
		switch f {
		case config.FieldTitle:
			b.WriteString(Sanitize(item.Title))
		case config.FieldUploadDate:
			b.WriteString(date)
		case config.FieldIndex:
			if item.Index == 0 {
				continue
			}
			b.WriteString(strconv.Itoa(item.Index))
		default:
			continue
		}
		b.WriteString(delimiter)
	}
	stem := strings.Trim(b.String(), delimiter)
	if stem == "" {
		stem = fallbackStem
	}
	return stem + mode.DownloadExt()
}

// Sanitize removes every rune that is not a letter, digit or underscore.
func Sanitize(title string) string {
	return nonWord.ReplaceAllString(title, "")
}
