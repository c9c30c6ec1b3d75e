package downloader

import (
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Result is the outcome of one task.
type Result struct {
	Success  bool
	URL      string
	Filename string
	Bytes    int64
	Err      error
}

// Report summarizes a run.
type Report struct {
	Successes int
	Failures  int
	// Failed lists the failed URLs in result order.
	Failed []string
	Bytes  int64
}

// Total is the number of processed tasks.
func (r Report) Total() int {
	return r.Successes + r.Failures
}

// Aggregate tallies results.
func Aggregate(results []Result) Report {
	var rep Report
	for _, res := range results {
		if !res.Success {
			rep.Failures++
			rep.Failed = append(rep.Failed, res.URL)
			continue
		}
		rep.Successes++
		rep.Bytes += res.Bytes
	}
	return rep
}

// Log prints the failed URLs followed by the success count.
func (r Report) Log(log zerolog.Logger) {
	if len(r.Failed) > 0 {
		log.Warn().Msg("Below is a list of URLs that failed to download.")
		for _, u := range r.Failed {
			log.Warn().Msgf("\t> '%s'", u)
		}
	}
	log.Info().
		Str("written", humanize.Bytes(uint64(r.Bytes))).
		Msgf("All downloads completed. Success / Total: '%d / %d'", r.Successes, r.Total())
}
