package filename

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/errs"
)

type fakeDates struct {
	mu      sync.Mutex
	dates   map[string]string
	calls   int
	active  int32
	maxSeen int32
}

func (f *fakeDates) UploadDate(_ context.Context, url string) (string, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	date, ok := f.dates[url]
	if !ok {
		return "", errors.New("video unavailable")
	}
	return date, nil
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		format config.FileNameFormat
		item   Item
		date   string
		mode   config.DownloadMode
		want   string
	}{
		{name: "title and index", format: config.NameTX, item: Item{Title: "Foo Bar!", Index: 5}, mode: config.ModeHigh, want: "FooBar,5.mp4"},
		{name: "index omitted outside playlist", format: config.NameXT, item: Item{Title: "Foo"}, mode: config.ModeHigh, want: "Foo.mp4"},
		{name: "date first", format: config.NameDXT, item: Item{Title: "a-b c", Index: 2}, date: "20240101", mode: config.ModeMax, want: "20240101,2,abc.mp4"},
		{name: "audio extension", format: config.NameT, item: Item{Title: "Song"}, mode: config.ModeWAV, want: "Song.m4a"},
		{name: "m4a", format: config.NameTD, item: Item{Title: "Song"}, date: DateError, mode: config.ModeM4A, want: "Song,ERROR.m4a"},
		{name: "unicode title", format: config.NameT, item: Item{Title: "日本語 タイトル_1"}, mode: config.ModeLow, want: "日本語タイトル_1.mp4"},
		{name: "empty stem", format: config.NameTX, item: Item{Title: "!!!"}, mode: config.ModeHigh, want: "video.mp4"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			order, err := test.format.Order()
			if err != nil {
				t.Fatalf("Order: %v", err)
			}
			if got := Build(order, test.item, test.date, test.mode); got != test.want {
				t.Fatalf("Build = %q, want %q", got, test.want)
			}
		})
	}
}

func TestAssembleWithoutDates(t *testing.T) {
	dates := &fakeDates{}
	a := NewAssembler(dates, 4, zerolog.Nop())
	items := []Item{{URL: "u1", Title: "One", Index: 1}, {URL: "u2", Title: "Two"}}
	tasks, err := a.Assemble(context.Background(), items, config.NameXT, config.ModeNormal)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []Task{
		{URL: "u1", Filename: "1,One.mp4", Title: "One", Index: 1},
		{URL: "u2", Filename: "Two.mp4", Title: "Two"},
	}
	if !reflect.DeepEqual(tasks, want) {
		t.Fatalf("tasks = %+v", tasks)
	}
	if dates.calls != 0 {
		t.Fatalf("dates fetched %d times for a format without dates", dates.calls)
	}
}

func TestAssembleFetchesDates(t *testing.T) {
	dates := &fakeDates{dates: map[string]string{"u1": "20230101", "u3": "20230303"}}
	a := NewAssembler(dates, 2, zerolog.Nop())
	items := []Item{
		{URL: "u1", Title: "One", Index: 1},
		{URL: "u2", Title: "Two", Index: 2},
		{URL: "u3", Title: "Three", Index: 3},
		{URL: "u4", Title: "Four", Index: 4},
		{URL: "u5", Title: "Five", Index: 5},
	}
	tasks, err := a.Assemble(context.Background(), items, config.NameDT, config.ModeM4A)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	got := make([]string, len(tasks))
	for i, task := range tasks {
		got[i] = task.Filename
	}
	want := []string{"20230101,One.m4a", "ERROR,Two.m4a", "20230303,Three.m4a", "ERROR,Four.m4a", "ERROR,Five.m4a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("filenames = %v", got)
	}
	if dates.calls != len(items) {
		t.Fatalf("calls = %d", dates.calls)
	}
	if max := atomic.LoadInt32(&dates.maxSeen); max > 2 {
		t.Fatalf("%d lookups in flight, limit is 2", max)
	}
}

func TestAssembleRejectsUnknownFormat(t *testing.T) {
	a := NewAssembler(&fakeDates{}, 1, zerolog.Nop())
	_, err := a.Assemble(context.Background(), []Item{{URL: "u"}}, config.FileNameFormat(99), config.ModeHigh)
	if !errs.Is(err, errs.CategoryConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize(`a/b\c:d*e?f"g<h>i|j k_l.m`); got != "abcdefghijk_lm" {
		t.Fatalf("Sanitize = %q", got)
	}
}
