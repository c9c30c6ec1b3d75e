package prompt

import (
	"fmt"
	"strconv"

	"github.com/lvcoi/ytbatch/internal/config"
)

const (
	downloadModeNote = "Note: The sound quality does not change between 5, 6 and 7, " +
		"but the file size of 6 is very large. 6 and 7 require 'ffmpeg'."
	thumbnailNote = "Thumbnails cannot be embedded if the download format is an audio file. " +
		"3 to 5 require 'ffmpeg'. When embedding a thumbnail, " +
		"add the image to the very first frame of the video."
	fileNameNote = "D: Upload Date, X: index, T: Title.\n" +
		"'index' means the index of the playlist. If it isn't playlist, " +
		"nothing is entered in the index. The options to use 'date' " +
		"takes a little longer."
)

// option is one numbered menu entry. refuse, when set, returns the reason
// the entry cannot be picked.
type option struct {
	label  string
	refuse func() string
}

const noFFmpeg = "This option is not available due to the absence of 'ffmpeg'."

// choose prints the numbered options and returns the 0-based index picked.
func (p *Prompter) choose(title, note string, options []option) (int, error) {
	fmt.Fprintln(p.out, title)
	for i, o := range options {
		fmt.Fprintf(p.out, " %2d: %s\n", i+1, o.label)
	}
	fmt.Fprintln(p.out, note)
	for {
		answer, err := p.ask("")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintln(p.out, "Invalid input.")
			continue
		}
		o := options[n-1]
		if o.refuse != nil {
			if reason := o.refuse(); reason != "" {
				fmt.Fprintln(p.out, reason)
				continue
			}
		}
		p.log.Info().Msgf("%s is selected.", o.label)
		fmt.Fprintln(p.out)
		return n - 1, nil
	}
}

func needsFFmpeg(required, available bool) func() string {
	return func() string {
		if required && !available {
			return noFFmpeg
		}
		return ""
	}
}

// DownloadMode asks for the kind of file to download.
func (p *Prompter) DownloadMode(canUseFFmpeg bool) (config.DownloadMode, error) {
	options := make([]option, len(config.DownloadModes))
	for i, m := range config.DownloadModes {
		options[i] = option{label: m.Description(), refuse: needsFFmpeg(m.RequiresFFmpeg(), canUseFFmpeg)}
	}
	i, err := p.choose("Select the type of file to download.", downloadModeNote, options)
	if err != nil {
		return 0, err
	}
	return config.DownloadModes[i], nil
}

// ThumbnailMode asks what to do with thumbnails. Embedding is refused for
// audio downloads.
func (p *Prompter) ThumbnailMode(mode config.DownloadMode, canUseFFmpeg bool) (config.ThumbnailMode, error) {
	options := make([]option, len(config.ThumbnailModes))
	for i, t := range config.ThumbnailModes {
		ffmpegCheck := needsFFmpeg(t.RequiresFFmpeg(), canUseFFmpeg)
		options[i] = option{label: t.Description(), refuse: func() string {
			if mode.IsAudio() && t.Embeds() {
				return "Image cannot be embedded in audio files."
			}
			return ffmpegCheck()
		}}
	}
	i, err := p.choose("Select settings about thumbnails.", thumbnailNote, options)
	if err != nil {
		return 0, err
	}
	return config.ThumbnailModes[i], nil
}

// FileNameFormat asks for the order of the filename fields.
func (p *Prompter) FileNameFormat() (config.FileNameFormat, error) {
	options := make([]option, len(config.FileNameFormats))
	for i, f := range config.FileNameFormats {
		options[i] = option{label: f.String()}
	}
	i, err := p.choose("Select the type of file name to download.", fileNameNote, options)
	if err != nil {
		return 0, err
	}
	return config.FileNameFormats[i], nil
}
