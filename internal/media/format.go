package media

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Format is one downloadable stream of a video.
type Format struct {
	ID       string
	Ext      string
	Width    int
	Height   int
	FPS      int
	ABR      float64 // kbit/s
	TBR      float64 // kbit/s
	ASR      int
	HasVideo bool
	HasAudio bool
}

type selectorKind int

const (
	kindCombined selectorKind = iota
	kindAudio
	kindVideo
)

type filterOp string

const (
	opLT filterOp = "<"
	opLE filterOp = "<="
	opGT filterOp = ">"
	opGE filterOp = ">="
	opEQ filterOp = "="
	opNE filterOp = "!="
)

type filter struct {
	field string
	op    filterOp
	value string
	// optional lets formats with an unknown value through ("[height<=?720]").
	optional bool
}

type alternative struct {
	kind    selectorKind
	worst   bool
	merge   bool
	filters []filter
}

// Selector is a parsed format selector such as
// "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best".
type Selector struct {
	raw  string
	alts []alternative
}

var (
	baseRegex   = regexp.MustCompile(`^([a-z]+)((?:\[[^\]]*\])*)$`)
	filterRegex = regexp.MustCompile(`\[([a-z_]+)\s*(<=|>=|!=|<|>|=)(\??)\s*([^\]]+)\]`)
)

var numericFields = map[string]bool{
	"height": true, "width": true, "fps": true, "abr": true, "tbr": true, "asr": true,
}

// ParseSelector parses the subset of the yt-dlp format language used by the
// download modes.
func ParseSelector(s string) (Selector, error) {
	sel := Selector{raw: s}
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return sel, fmt.Errorf("empty format selector")
	}
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			return sel, fmt.Errorf("format selector %q: empty alternative", s)
		}
		if strings.Contains(part, "+") {
			// Each side must still be valid, but merging needs an external muxer.
			for _, side := range strings.Split(part, "+") {
				if _, err := parseAlternative(side); err != nil {
					return sel, err
				}
			}
			sel.alts = append(sel.alts, alternative{merge: true})
			continue
		}
		alt, err := parseAlternative(part)
		if err != nil {
			return sel, err
		}
		sel.alts = append(sel.alts, alt)
	}
	return sel, nil
}

func parseAlternative(part string) (alternative, error) {
	m := baseRegex.FindStringSubmatch(part)
	if m == nil {
		return alternative{}, fmt.Errorf("invalid format selector %q", part)
	}
	var alt alternative
	switch m[1] {
	case "best", "b":
	case "worst", "w":
		alt.worst = true
	case "bestaudio", "ba":
		alt.kind = kindAudio
	case "worstaudio", "wa":
		alt.kind, alt.worst = kindAudio, true
	case "bestvideo", "bv":
		alt.kind = kindVideo
	case "worstvideo", "wv":
		alt.kind, alt.worst = kindVideo, true
	default:
		return alternative{}, fmt.Errorf("unknown format %q", m[1])
	}
	rest := m[2]
	for rest != "" {
		loc := filterRegex.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			return alternative{}, fmt.Errorf("invalid filter in %q", part)
		}
		f := filter{
			field:    rest[loc[2]:loc[3]],
			op:       filterOp(rest[loc[4]:loc[5]]),
			optional: loc[7] > loc[6],
			value:    rest[loc[8]:loc[9]],
		}
		if f.field == "ext" {
			if f.op != opEQ && f.op != opNE {
				return alternative{}, fmt.Errorf("filter %s only supports = and !=", f.field)
			}
		} else if numericFields[f.field] {
			if _, err := strconv.ParseFloat(f.value, 64); err != nil {
				return alternative{}, fmt.Errorf("filter %s: %q is not a number", f.field, f.value)
			}
		} else {
			return alternative{}, fmt.Errorf("unsupported filter field %q", f.field)
		}
		alt.filters = append(alt.filters, f)
		rest = rest[loc[1]:]
	}
	return alt, nil
}

func (s Selector) String() string {
	return s.raw
}

// Select returns the first alternative that matches a format. Merge
// alternatives never match.
func (s Selector) Select(formats []Format) (Format, error) {
	for _, alt := range s.alts {
		if alt.merge {
			continue
		}
		if f, ok := alt.pick(formats); ok {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %s", ErrNoFormat, s.raw)
}

func (a alternative) pick(formats []Format) (Format, bool) {
	var candidates []Format
	for _, f := range formats {
		if !a.kindMatches(f) {
			continue
		}
		if !a.filtersMatch(f) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return Format{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return better(candidates[i], candidates[j], a.kind)
	})
	if a.worst {
		return candidates[len(candidates)-1], true
	}
	return candidates[0], true
}

func (a alternative) kindMatches(f Format) bool {
	switch a.kind {
	case kindAudio:
		return f.HasAudio && !f.HasVideo
	case kindVideo:
		return f.HasVideo && !f.HasAudio
	default:
		return f.HasAudio && f.HasVideo
	}
}

func (a alternative) filtersMatch(f Format) bool {
	for _, flt := range a.filters {
		if !flt.matches(f) {
			return false
		}
	}
	return true
}

func (flt filter) matches(f Format) bool {
	if flt.field == "ext" {
		eq := strings.EqualFold(f.Ext, flt.value)
		if flt.op == opNE {
			return !eq
		}
		return eq
	}
	have := f.numeric(flt.field)
	if have == 0 {
		return flt.optional
	}
	want, _ := strconv.ParseFloat(flt.value, 64)
	switch flt.op {
	case opLT:
		return have < want
	case opLE:
		return have <= want
	case opGT:
		return have > want
	case opGE:
		return have >= want
	case opEQ:
		return have == want
	case opNE:
		return have != want
	}
	return false
}

func (f Format) numeric(field string) float64 {
	switch field {
	case "height":
		return float64(f.Height)
	case "width":
		return float64(f.Width)
	case "fps":
		return float64(f.FPS)
	case "abr":
		return f.ABR
	case "tbr":
		return f.TBR
	case "asr":
		return float64(f.ASR)
	}
	return 0
}

// better orders formats from best to worst.
func better(a, b Format, kind selectorKind) bool {
	if kind == kindAudio {
		if a.ABR != b.ABR {
			return a.ABR > b.ABR
		}
		if a.ASR != b.ASR {
			return a.ASR > b.ASR
		}
		return a.TBR > b.TBR
	}
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if a.FPS != b.FPS {
		return a.FPS > b.FPS
	}
	return a.TBR > b.TBR
}

// extForMime maps a stream MIME type to the extension yt-dlp reports.
func extForMime(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	kind, sub, ok := strings.Cut(strings.TrimSpace(strings.ToLower(mime)), "/")
	if !ok {
		return ""
	}
	switch {
	case kind == "audio" && sub == "mp4":
		return "m4a"
	case sub == "3gpp":
		return "3gp"
	default:
		return sub
	}
}
