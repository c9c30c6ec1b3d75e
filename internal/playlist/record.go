// Package playlist flattens user URLs into records and regroups the records
// into playlists.
package playlist

import "github.com/lvcoi/ytbatch/internal/media"

// Record is one downloadable item.
type Record struct {
	URL   string
	Title string
	// Index is the 1-based position inside the playlist, 0 outside one.
	Index int
	// PlaylistSeq identifies the playlist the record came from, 0 for none.
	PlaylistSeq int
	// DirectlySpecified is set when the user's input pointed at this item.
	DirectlySpecified bool
}

// Private reports whether the item is an inaccessible playlist member.
func (r Record) Private() bool {
	return r.Title == media.PrivateVideoTitle
}

// Group is one contiguous run of ascending indices.
type Group []Record

// Partition splits records into playlist groups and standalone videos. A
// drop in index starts a new group; equal consecutive indices stay in the
// current one.
func Partition(records []Record) (groups []Group, standalone []Record) {
	var current Group
	lastIndex := 0
	for _, r := range records {
		if r.Index == 0 {
			standalone = append(standalone, r)
			continue
		}
		if r.Index < lastIndex {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, r)
		lastIndex = r.Index
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, standalone
}
