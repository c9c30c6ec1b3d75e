package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
)

type recorder struct {
	name string
	args []string
	out  string
	err  error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return []byte(r.out), r.err
}

func TestVersion(t *testing.T) {
	rec := &recorder{out: "ffmpeg version 6.1.1 Copyright (c) 2000-2023\nbuilt with gcc\n"}
	tool := &Tool{path: "/usr/bin/ffmpeg", run: rec.run}

	version, err := tool.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "ffmpeg version 6.1.1 Copyright (c) 2000-2023" {
		t.Fatalf("version = %q", version)
	}
	if rec.name != "/usr/bin/ffmpeg" || !reflect.DeepEqual(rec.args, []string{"-version"}) {
		t.Fatalf("ran %s %v", rec.name, rec.args)
	}
}

func TestVersionRejectsUnusableBinary(t *testing.T) {
	tests := []struct {
		name string
		tool *Tool
	}{
		{"empty path", &Tool{run: (&recorder{}).run}},
		{"exit error", &Tool{path: "ffmpeg", run: (&recorder{err: errors.New("exit status 1")}).run}},
		{"not ffmpeg", &Tool{path: "/bin/echo", run: (&recorder{out: "-version\n"}).run}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := test.tool.Version(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConvertArgs(t *testing.T) {
	rec := &recorder{}
	tool := &Tool{path: "ffmpeg", run: rec.run}
	if err := tool.Convert(context.Background(), "in.m4a", "out.wav"); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	joined := strings.Join(rec.args, " ")
	if !strings.Contains(joined, "-i in.m4a") || !contains(rec.args, "out.wav") {
		t.Fatalf("unexpected args %v", rec.args)
	}
	if !contains(rec.args, "-y") {
		t.Fatalf("expected overwrite flag in %v", rec.args)
	}

	if err := tool.Convert(context.Background(), "in.m4a", "out.mp3"); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !contains(rec.args, "libmp3lame") {
		t.Fatalf("expected mp3 encoder in %v", rec.args)
	}
}

func TestEmbedThumbnailArgs(t *testing.T) {
	rec := &recorder{}
	tool := &Tool{path: "ffmpeg", run: rec.run}
	if err := tool.EmbedThumbnail(context.Background(), "v.mp4", "v.png", "vIN_SET_THUMBNAIL.mp4"); err != nil {
		t.Fatalf("EmbedThumbnail: %v", err)
	}
	want := []string{"-y", "-i", "v.mp4", "-i", "v.png", "-c", "copy", "-map", "1", "-map", "0", "-disposition:v:0", "attached_pic", "vIN_SET_THUMBNAIL.mp4"}
	if !reflect.DeepEqual(rec.args, want) {
		t.Fatalf("args = %v", rec.args)
	}
}

func TestExecSurfacesOutput(t *testing.T) {
	rec := &recorder{out: "Input #0\nv.png: No such file or directory\n", err: errors.New("exit status 1")}
	tool := &Tool{path: "ffmpeg", run: rec.run}
	err := tool.EmbedThumbnail(context.Background(), "v.mp4", "v.png", "tmp.mp4")
	if err == nil || !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}

	if err := (&Tool{run: rec.run}).Convert(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error without a configured path")
	}
}

func TestWriteID3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("audio frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteID3(path, Tags{Title: "Song", Track: 3, Year: "2023"}); err != nil {
		t.Fatalf("WriteID3: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()
	if tag.Title() != "Song" || tag.Year() != "2023" {
		t.Fatalf("title %q year %q", tag.Title(), tag.Year())
	}
	if track := tag.GetTextFrame(tag.CommonID("Track number/Position in set")).Text; track != "3" {
		t.Fatalf("track = %q", track)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
