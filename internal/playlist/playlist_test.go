package playlist

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/media"
	"github.com/lvcoi/ytbatch/internal/resolver"
)

type fakeResolver struct {
	results map[string]resolver.Resolved
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (resolver.Resolved, error) {
	f.calls = append(f.calls, url)
	res, ok := f.results[url]
	if !ok {
		return nil, errors.New("video unavailable")
	}
	return res, nil
}

func entries(titles ...string) []media.Entry {
	out := make([]media.Entry, len(titles))
	for i, title := range titles {
		out[i] = media.Entry{URL: "https://v/" + title, Title: title}
	}
	return out
}

func TestFlattenScenario(t *testing.T) {
	// A playlist, a member pointer into a second playlist, and a single video.
	fake := &fakeResolver{results: map[string]resolver.Resolved{
		"pl1":     resolver.PlaylistEntries{Entries: entries("a", "b")},
		"pointer": resolver.PlaylistMemberPointer{ContainerURL: "pl2", MemberIndex: 2},
		"pl2":     resolver.PlaylistEntries{Entries: entries("c", "d", "e")},
		"single":  resolver.SingleVideo{URL: "https://v/s", Title: "s"},
	}}
	f := NewFlattener(fake, zerolog.Nop())

	got := f.Flatten(context.Background(), []string{"pl1", "pointer", "single"})
	want := []Record{
		{URL: "https://v/a", Title: "a", Index: 1, PlaylistSeq: 1},
		{URL: "https://v/b", Title: "b", Index: 2, PlaylistSeq: 1},
		{URL: "https://v/c", Title: "c", Index: 1, PlaylistSeq: 2},
		{URL: "https://v/d", Title: "d", Index: 2, PlaylistSeq: 2, DirectlySpecified: true},
		{URL: "https://v/e", Title: "e", Index: 3, PlaylistSeq: 2},
		{URL: "https://v/s", Title: "s", DirectlySpecified: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten:\n got %+v\nwant %+v", got, want)
	}

	groups, standalone := Partition(got)
	if len(groups) != 2 || len(groups[0]) != 2 || len(groups[1]) != 3 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if len(standalone) != 1 || standalone[0].URL != "https://v/s" {
		t.Fatalf("unexpected standalone %+v", standalone)
	}
}

func TestFlattenSkipsFailures(t *testing.T) {
	fake := &fakeResolver{results: map[string]resolver.Resolved{
		"ok": resolver.SingleVideo{URL: "https://v/ok", Title: "ok"},
	}}
	got := NewFlattener(fake, zerolog.Nop()).Flatten(context.Background(), []string{"missing", "ok"})
	if len(got) != 1 || got[0].URL != "https://v/ok" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestFlattenPendingIndexIsConsumed(t *testing.T) {
	fake := &fakeResolver{results: map[string]resolver.Resolved{
		"pointer": resolver.PlaylistMemberPointer{ContainerURL: "pl", MemberIndex: 1},
		"pl":      resolver.PlaylistEntries{Entries: entries("a", "b")},
	}}
	got := NewFlattener(fake, zerolog.Nop()).Flatten(context.Background(), []string{"pointer", "pl"})
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %+v", got)
	}
	if !got[0].DirectlySpecified || got[1].DirectlySpecified {
		t.Fatalf("pointer should mark only the first member: %+v", got[:2])
	}
	if got[2].DirectlySpecified || got[3].DirectlySpecified {
		t.Fatalf("second resolution must not inherit the pending index: %+v", got[2:])
	}
	if got[2].PlaylistSeq != 2 {
		t.Fatalf("sequence should advance per playlist, got %d", got[2].PlaylistSeq)
	}
}

func TestFlattenPointerFailures(t *testing.T) {
	results := map[string]resolver.Resolved{
		"dangling": resolver.PlaylistMemberPointer{ContainerURL: "gone", MemberIndex: 2},
		"loop":     resolver.PlaylistMemberPointer{ContainerURL: "loop2", MemberIndex: 1},
		"loop2":    resolver.PlaylistMemberPointer{ContainerURL: "pl", MemberIndex: 1},
		"pl":       resolver.PlaylistEntries{Entries: entries("a", "b")},
	}
	tests := []struct {
		name string
		urls []string
	}{
		// Container "gone" fails; its index 2 must not mark "b" of the next playlist.
		{name: "failed container", urls: []string{"dangling", "pl"}},
		{name: "pointer to pointer", urls: []string{"loop", "pl"}},
		{name: "both", urls: []string{"dangling", "loop", "pl"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := NewFlattener(&fakeResolver{results: results}, zerolog.Nop())
			got := f.Flatten(context.Background(), test.urls)
			if len(got) != 2 {
				t.Fatalf("expected only the playlist records, got %+v", got)
			}
			for _, r := range got {
				if r.DirectlySpecified {
					t.Fatalf("failed pointer leaked its index into the next playlist: %+v", got)
				}
			}
			if f.state.pending != 0 {
				t.Fatalf("pending index = %d", f.state.pending)
			}
		})
	}
}

func TestFlattenStopsOnCancel(t *testing.T) {
	fake := &fakeResolver{results: map[string]resolver.Resolved{
		"a": resolver.SingleVideo{URL: "a"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := NewFlattener(fake, zerolog.Nop()).Flatten(ctx, []string{"a"}); len(got) != 0 {
		t.Fatalf("expected no records, got %+v", got)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("resolver called after cancel: %v", fake.calls)
	}
}

func indices(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Index
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name       string
		in         []int
		groups     [][]int
		standalone int
	}{
		{name: "empty", in: nil, groups: nil},
		{name: "only standalone", in: []int{0, 0}, standalone: 2},
		{name: "back to back", in: []int{1, 2, 1, 2, 3}, groups: [][]int{{1, 2}, {1, 2, 3}}},
		{name: "interleaved standalone", in: []int{1, 0, 2, 3, 0, 1}, groups: [][]int{{1, 2, 3}, {1}}, standalone: 2},
		{name: "equal indices continue", in: []int{1, 2, 2, 3}, groups: [][]int{{1, 2, 2, 3}}},
		{name: "single item playlists", in: []int{1, 1, 1}, groups: [][]int{{1, 1, 1}}},
		{name: "drop mid run", in: []int{3, 4, 2}, groups: [][]int{{3, 4}, {2}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			records := make([]Record, len(test.in))
			for i, idx := range test.in {
				records[i] = Record{Index: idx}
			}
			groups, standalone := Partition(records)
			if len(standalone) != test.standalone {
				t.Fatalf("standalone = %d, want %d", len(standalone), test.standalone)
			}
			var got [][]int
			for _, g := range groups {
				got = append(got, indices(g))
			}
			if !reflect.DeepEqual(got, test.groups) {
				t.Fatalf("groups = %v, want %v", got, test.groups)
			}
		})
	}
}
