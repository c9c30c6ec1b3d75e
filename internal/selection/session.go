// Package selection lets the user pick which members of a playlist to
// download. Session holds the command language and is free of I/O; the
// terminal front-ends only read lines and print what Apply returns.
package selection

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/playlist"
)

// Usage is printed after the playlist listing and for the usage command.
const Usage = "Specify the range to be downloaded by index. " +
	"Specifying outside the range will be ignored. " +
	"Multiple designations can be comma-separated.\n" +
	"You can also use the following notation.\n" +
	"F:        Exit selection\n" +
	"all:      Select all\n" +
	"original: Only the specified videos\n" +
	"display:  Display current selection\n" +
	"reset:    Deselect All\n" +
	"usage:    Display how to use\n" +
	"1, 5-7:   Meaning 1, 5, 6, 7"

var (
	whitespace   = regexp.MustCompile(`\s+`)
	invalidChars = regexp.MustCompile(`[^0-9-]`)
	rangeRegex   = regexp.MustCompile(`^\d+-\d+`)
	numberRegex  = regexp.MustCompile(`^\d+$`)
)

// MessageKind tells a front-end how to render a Message.
type MessageKind int

const (
	// Text is plain output such as the usage or a display listing.
	Text MessageKind = iota
	// Info is a log line.
	Info
	// Warning reports a rejected or partially applied command.
	Warning
)

type Message struct {
	Kind MessageKind
	Text string
	// Err is set for warnings and carries the syntax or range category.
	Err error
}

// Outcome is the result of one input line.
type Outcome struct {
	Messages []Message
	// Done is set once the user finalized; Mask is then the final selection.
	Done bool
	Mask []bool
}

// Session is the selection state for one playlist group.
type Session struct {
	group playlist.Group
	mask  []bool
	done  bool
}

func NewSession(group playlist.Group) *Session {
	return &Session{group: group, mask: make([]bool, len(group))}
}

// Mask returns a copy of the current selection.
func (s *Session) Mask() []bool {
	out := make([]bool, len(s.mask))
	copy(out, s.mask)
	return out
}

func (s *Session) Done() bool {
	return s.done
}

// Listing is shown before the first prompt. Private entries are hidden.
func (s *Session) Listing() []string {
	lines := make([]string, 0, len(s.group))
	for _, r := range s.group {
		if r.Private() {
			continue
		}
		lines = append(lines, fmt.Sprintf("\t%3d: %s", r.Index, r.Title))
	}
	return lines
}

// Apply runs every comma separated command of input in order. Parts after a
// finalize command are ignored.
func (s *Session) Apply(input string) Outcome {
	var out Outcome
	if s.done {
		out.Done, out.Mask = true, s.Mask()
		return out
	}
	text := whitespace.ReplaceAllString(strings.ToLower(input), "")
	for _, part := range strings.Split(text, ",") {
		if part == "" {
			continue
		}
		switch part {
		case "f":
			s.finalize()
			out.Messages = append(out.Messages, Message{Kind: Info, Text: "Finish range selection."})
			out.Done, out.Mask = true, s.Mask()
			return out
		case "usage":
			out.Messages = append(out.Messages, Message{Kind: Text, Text: Usage})
			continue
		case "display":
			for _, line := range s.display() {
				out.Messages = append(out.Messages, Message{Kind: Text, Text: line})
			}
			continue
		}
		if err := s.applyPart(part); err != nil {
			out.Messages = append(out.Messages, warning(part, err))
		}
	}
	return out
}

func warning(part string, err error) Message {
	text := "The out-of-range portion of the entered value was ignored."
	if errs.Is(err, errs.CategorySyntax) {
		text = fmt.Sprintf("Entered '%s' is skipped due to syntax error.", part)
	}
	return Message{Kind: Warning, Text: text, Err: err}
}

// applyPart mutates the mask for one command. A range error may still have
// applied the in-range portion.
func (s *Session) applyPart(part string) error {
	switch part {
	case "all":
		s.set(0, len(s.mask)-1, true)
		return nil
	case "reset":
		s.set(0, len(s.mask)-1, false)
		return nil
	case "original":
		for i, r := range s.group {
			if r.DirectlySpecified {
				s.mask[i] = true
				return nil
			}
		}
		return errs.Wrapf(errs.CategoryRange, "no directly specified video in this playlist")
	}

	if invalidChars.MatchString(part) {
		return errs.Wrapf(errs.CategorySyntax, "invalid characters in %q", part)
	}
	if numberRegex.MatchString(part) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(s.mask) {
			return errs.Wrapf(errs.CategoryRange, "%s is outside 1-%d", part, len(s.mask))
		}
		s.mask[n-1] = true
		return nil
	}
	if !rangeRegex.MatchString(part) {
		return errs.Wrapf(errs.CategorySyntax, "%q is neither a number nor a range", part)
	}
	// "a-b-c" is accepted; the two smallest bounds form the range.
	fields := strings.Split(part, "-")
	bounds := make([]int, len(fields))
	for i, v := range fields {
		if v == "" {
			return errs.Wrapf(errs.CategorySyntax, "%q has an empty bound", part)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrapf(errs.CategoryRange, "%s is outside 1-%d", part, len(s.mask))
		}
		bounds[i] = n
	}
	sort.Ints(bounds)
	if !s.set(bounds[0]-1, bounds[1]-1, true) {
		return errs.Wrapf(errs.CategoryRange, "%s exceeds 1-%d", part, len(s.mask))
	}
	return nil
}

// set assigns value to mask[first..last], clamped to the mask. It reports
// whether the whole requested span was inside the mask.
func (s *Session) set(first, last int, value bool) bool {
	inside := true
	if first < 0 {
		first, inside = 0, false
	}
	if last > len(s.mask)-1 {
		last, inside = len(s.mask)-1, false
	}
	for i := first; i <= last; i++ {
		s.mask[i] = value
	}
	return inside
}

func (s *Session) display() []string {
	lines := make([]string, 0, len(s.group))
	for i, r := range s.group {
		state := "F"
		if s.mask[i] {
			state = "True"
		}
		lines = append(lines, fmt.Sprintf("\t%3d: %s, \tTitle: '%s'", i+1, state, r.Title))
	}
	return lines
}

// finalize clears private entries and closes the session.
func (s *Session) finalize() {
	for i, r := range s.group {
		if r.Private() {
			s.mask[i] = false
		}
	}
	s.done = true
}

// Selected returns the members of group whose mask entry is set.
func Selected(group playlist.Group, mask []bool) []playlist.Record {
	var out []playlist.Record
	for i, r := range group {
		if i < len(mask) && mask[i] {
			out = append(out, r)
		}
	}
	return out
}
