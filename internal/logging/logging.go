// Package logging configures the zerolog console logger used by every stage.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	colorReset   = "\x1b[0m"
	colorGreen   = "\x1b[32m"
	colorRed     = "\x1b[31m"
	colorYellow  = "\x1b[33m"
	colorBoldRed = "\x1b[1;31m"
)

// New returns a console logger writing "[LEVEL] message key=value" lines to w.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	color := supportsColor(w)
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			name, _ := i.(string)
			return formatLevel(name, color)
		},
	}
	return zerolog.New(out).Level(lvl), nil
}

// ParseLevel accepts debug, info, warn/warning, error and an empty string (info).
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q (expected debug, info, warn, error)", level)
	}
}

func formatLevel(name string, color bool) string {
	label := "[" + strings.ToUpper(name) + "]"
	if !color {
		return label
	}
	switch name {
	case zerolog.LevelDebugValue:
		return colorGreen + label + colorReset
	case zerolog.LevelWarnValue:
		return colorYellow + label + colorReset
	case zerolog.LevelErrorValue:
		return colorRed + label + colorReset
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return colorBoldRed + label + colorReset
	default:
		return label
	}
}

func supportsColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" || os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
