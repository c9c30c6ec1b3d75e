package config

import (
	"fmt"
	"strings"

	"github.com/lvcoi/ytbatch/internal/errs"
)

// DownloadMode selects quality and container for every item of a run.
type DownloadMode int

const (
	ModeMax DownloadMode = iota
	ModeHigh
	ModeNormal
	ModeLow
	ModeM4A
	ModeWAV
	ModeMP3
)

// DownloadModes lists the modes in menu order.
var DownloadModes = []DownloadMode{ModeMax, ModeHigh, ModeNormal, ModeLow, ModeM4A, ModeWAV, ModeMP3}

const (
	ExtM4A = ".m4a"
	ExtMP4 = ".mp4"
	ExtWAV = ".wav"
	ExtMP3 = ".mp3"
	ExtPNG = ".png"

	// ExtThumbnail is the extension the media provider writes thumbnails with.
	ExtThumbnail = ".webp"
)

func (m DownloadMode) String() string {
	switch m {
	case ModeMax:
		return "max"
	case ModeHigh:
		return "high"
	case ModeNormal:
		return "normal"
	case ModeLow:
		return "low"
	case ModeM4A:
		return "m4a"
	case ModeWAV:
		return "wav"
	case ModeMP3:
		return "mp3"
	default:
		return fmt.Sprintf("DownloadMode(%d)", int(m))
	}
}

// Description is the menu label.
func (m DownloadMode) Description() string {
	switch m {
	case ModeMax:
		return "Max quality"
	case ModeHigh:
		return "High quality"
	case ModeNormal:
		return "Normal quality, 720p or less"
	case ModeLow:
		return "Low quality, 480p or less"
	case ModeM4A:
		return "Only audio, ext=m4a"
	case ModeWAV:
		return "Only audio, ext=wav"
	case ModeMP3:
		return "Only audio, ext=mp3 (tagged)"
	default:
		return m.String()
	}
}

// FormatSelector returns the format DSL string handed to the media provider.
func (m DownloadMode) FormatSelector() string {
	switch m {
	case ModeMax:
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	case ModeHigh:
		return "best[fps<=30]"
	case ModeNormal:
		return "best[height<=720][fps<=30]"
	case ModeLow:
		return "best[height<=480][fps<=30]"
	default:
		return "bestaudio[ext=m4a]"
	}
}

// IsAudio reports whether the mode only fetches an audio stream.
func (m DownloadMode) IsAudio() bool {
	return m == ModeM4A || m == ModeWAV || m == ModeMP3
}

// RequiresFFmpeg reports whether the mode converts the downloaded container.
func (m DownloadMode) RequiresFFmpeg() bool {
	return m == ModeWAV || m == ModeMP3
}

// DownloadExt is the extension of the file the provider writes.
func (m DownloadMode) DownloadExt() string {
	if m.IsAudio() {
		return ExtM4A
	}
	return ExtMP4
}

// ConvertExt is the extension produced by post-processing, or "" when the
// downloaded container is kept.
func (m DownloadMode) ConvertExt() string {
	switch m {
	case ModeWAV:
		return ExtWAV
	case ModeMP3:
		return ExtMP3
	default:
		return ""
	}
}

// ThumbnailMode selects what happens with the video thumbnail.
type ThumbnailMode int

const (
	ThumbnailNone ThumbnailMode = iota
	ThumbnailWebP
	ThumbnailPNG
	ThumbnailEmbed
	ThumbnailPNGAndEmbed
)

// ThumbnailModes lists the modes in menu order.
var ThumbnailModes = []ThumbnailMode{ThumbnailNone, ThumbnailWebP, ThumbnailPNG, ThumbnailEmbed, ThumbnailPNGAndEmbed}

func (t ThumbnailMode) String() string {
	switch t {
	case ThumbnailNone:
		return "none"
	case ThumbnailWebP:
		return "webp"
	case ThumbnailPNG:
		return "png"
	case ThumbnailEmbed:
		return "embed"
	case ThumbnailPNGAndEmbed:
		return "png+embed"
	default:
		return fmt.Sprintf("ThumbnailMode(%d)", int(t))
	}
}

// Description is the menu label.
func (t ThumbnailMode) Description() string {
	switch t {
	case ThumbnailNone:
		return "Nothing"
	case ThumbnailWebP:
		return "Get thumbnails, ext=webp"
	case ThumbnailPNG:
		return "Get thumbnails, ext=png"
	case ThumbnailEmbed:
		return "Set thumbnails"
	case ThumbnailPNGAndEmbed:
		return "Get and Set thumbnails, ext=png"
	default:
		return t.String()
	}
}

// WritesThumbnail reports whether the provider must fetch the thumbnail.
func (t ThumbnailMode) WritesThumbnail() bool {
	return t != ThumbnailNone
}

// NeedsProcessing reports whether the worker has to touch the thumbnail after
// the provider wrote it.
func (t ThumbnailMode) NeedsProcessing() bool {
	return t != ThumbnailNone && t != ThumbnailWebP
}

// Embeds reports whether the thumbnail is muxed into the video.
func (t ThumbnailMode) Embeds() bool {
	return t == ThumbnailEmbed || t == ThumbnailPNGAndEmbed
}

// KeepsPNG reports whether the converted image stays next to the video.
func (t ThumbnailMode) KeepsPNG() bool {
	return t == ThumbnailPNG || t == ThumbnailPNGAndEmbed
}

// RequiresFFmpeg reports whether the mode converts or embeds.
func (t ThumbnailMode) RequiresFFmpeg() bool {
	return t.NeedsProcessing()
}

// Field is one component of an output filename.
type Field int

const (
	FieldTitle Field = iota
	FieldUploadDate
	FieldIndex
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldUploadDate:
		return "upload_date"
	case FieldIndex:
		return "index"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// FileNameFormat is one of the supported orderings of title (T), upload date
// (D) and playlist index (X).
type FileNameFormat int

const (
	NameT FileNameFormat = iota
	NameDT
	NameTD
	NameXT
	NameTX
	NameDTX
	NameDXT
	NameXTD
	NameXDT
	NameTXD
	NameTDX
)

var fileNameOrders = map[FileNameFormat][]Field{
	NameT:   {FieldTitle},
	NameDT:  {FieldUploadDate, FieldTitle},
	NameTD:  {FieldTitle, FieldUploadDate},
	NameXT:  {FieldIndex, FieldTitle},
	NameTX:  {FieldTitle, FieldIndex},
	NameDTX: {FieldUploadDate, FieldTitle, FieldIndex},
	NameDXT: {FieldUploadDate, FieldIndex, FieldTitle},
	NameXTD: {FieldIndex, FieldTitle, FieldUploadDate},
	NameXDT: {FieldIndex, FieldUploadDate, FieldTitle},
	NameTXD: {FieldTitle, FieldIndex, FieldUploadDate},
	NameTDX: {FieldTitle, FieldUploadDate, FieldIndex},
}

// FileNameFormats lists the formats in menu order.
var FileNameFormats = []FileNameFormat{NameT, NameDT, NameTD, NameXT, NameTX, NameDTX, NameDXT, NameXTD, NameXDT, NameTXD, NameTDX}

// Order returns the fields of the format. An unknown format is a
// configuration error.
func (f FileNameFormat) Order() ([]Field, error) {
	order, ok := fileNameOrders[f]
	if !ok {
		return nil, errs.Wrapf(errs.CategoryConfig, "unsupported file name format: %d", int(f))
	}
	out := make([]Field, len(order))
	copy(out, order)
	return out, nil
}

func (f FileNameFormat) String() string {
	order, ok := fileNameOrders[f]
	if !ok {
		return fmt.Sprintf("FileNameFormat(%d)", int(f))
	}
	parts := make([]string, 0, len(order))
	for _, field := range order {
		switch field {
		case FieldTitle:
			parts = append(parts, "T")
		case FieldUploadDate:
			parts = append(parts, "D")
		case FieldIndex:
			parts = append(parts, "X")
		}
	}
	return strings.Join(parts, " + ")
}

// ParseDownloadMode accepts the String form of a mode.
func ParseDownloadMode(s string) (DownloadMode, error) {
	for _, m := range DownloadModes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errs.Wrapf(errs.CategoryConfig, "unknown download mode %q", s)
}

// ParseThumbnailMode accepts the String form of a thumbnail mode.
func ParseThumbnailMode(s string) (ThumbnailMode, error) {
	for _, m := range ThumbnailModes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errs.Wrapf(errs.CategoryConfig, "unknown thumbnail mode %q", s)
}
