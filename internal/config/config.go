// Package config holds the run configuration: the settings read from flags,
// environment and config file, and the choices made during interactive setup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lvcoi/ytbatch/internal/errs"
)

// Viper keys. Flags, YTBATCH_* environment variables and the config file all
// resolve through these.
const (
	KeyCookieFile   = "cookiefile"
	KeyJobs         = "jobs"
	KeyBackend      = "backend"
	KeyFFmpeg       = "ffmpeg"
	KeyOutputDir    = "output-dir"
	KeyLogLevel     = "log-level"
	KeyTimeout      = "timeout"
	KeyInstallYtdlp = "install-ytdlp"

	EnvPrefix = "YTBATCH"
)

const (
	DefaultJobs    = 4
	DefaultTimeout = 3 * time.Minute

	BackendYtdlp  = "ytdlp"
	BackendNative = "native"
)

// Config is immutable once interactive setup has finished.
type Config struct {
	CookieFile     string
	OutputDir      string
	FFmpegPath     string
	Jobs           int
	Backend        string
	LogLevel       string
	Timeout        time.Duration
	InstallYtdlp   bool
	DownloadMode   DownloadMode
	ThumbnailMode  ThumbnailMode
	FileNameFormat FileNameFormat
}

// SetDefaults registers defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyJobs, DefaultJobs)
	v.SetDefault(KeyBackend, BackendYtdlp)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTimeout, DefaultTimeout)
}

// Load builds the non-interactive part of a Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		CookieFile:     cleanPath(v.GetString(KeyCookieFile)),
		OutputDir:      cleanPath(v.GetString(KeyOutputDir)),
		FFmpegPath:     cleanPath(v.GetString(KeyFFmpeg)),
		Jobs:           v.GetInt(KeyJobs),
		Backend:        strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		LogLevel:       v.GetString(KeyLogLevel),
		Timeout:        v.GetDuration(KeyTimeout),
		InstallYtdlp:   v.GetBool(KeyInstallYtdlp),
		DownloadMode:   ModeHigh,
		ThumbnailMode:  ThumbnailNone,
		FileNameFormat: NameT,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no stage can work with.
func (c Config) Validate() error {
	if c.Jobs < 1 {
		return errs.Wrapf(errs.CategoryConfig, "jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Backend {
	case BackendYtdlp, BackendNative:
	default:
		return errs.Wrapf(errs.CategoryConfig, "unknown backend %q (expected %s or %s)", c.Backend, BackendYtdlp, BackendNative)
	}
	if c.Timeout < 0 {
		return errs.Wrapf(errs.CategoryConfig, "timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := c.FileNameFormat.Order(); err != nil {
		return err
	}
	return nil
}

// CanUseFFmpeg reports whether conversion and thumbnail features are enabled.
func (c Config) CanUseFFmpeg() bool {
	return c.FFmpegPath != ""
}

// CheckFeatures verifies the chosen modes against ffmpeg availability.
func (c Config) CheckFeatures() error {
	if c.CanUseFFmpeg() {
		return nil
	}
	if c.DownloadMode.RequiresFFmpeg() {
		return errs.Wrap(errs.CategoryConfig, fmt.Errorf("download mode %s requires ffmpeg", c.DownloadMode))
	}
	if c.ThumbnailMode.RequiresFFmpeg() {
		return errs.Wrap(errs.CategoryConfig, fmt.Errorf("thumbnail mode %s requires ffmpeg", c.ThumbnailMode))
	}
	return nil
}

// cleanPath strips the blanks and quotes users paste around paths.
func cleanPath(p string) string {
	return strings.Trim(p, " \"'")
}
