package ffmpeg

import (
	"strconv"

	id3v2 "github.com/bogem/id3v2/v2"
)

// Tags are the ID3 frames written to converted mp3 files.
type Tags struct {
	Title string
	// Track is the playlist index; 0 leaves the frame out.
	Track int
	// Year is the four digit upload year, or empty.
	Year string
}

// WriteID3 sets the tags on the mp3 at path.
func WriteID3(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Year != "" {
		tag.SetYear(tags.Year)
	}
	if tags.Track != 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(tags.Track))
	}
	return tag.Save()
}
