package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lvcoi/ytbatch/internal/app"
	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/logging"
	"github.com/lvcoi/ytbatch/internal/prompt"
	"github.com/lvcoi/ytbatch/internal/selection"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(viper.New(), os.Stdin, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errs.Is(err, errs.CategoryDownload) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(errs.ExitCode(err))
	}
}

// newRootCmd binds every flag to v so YTBATCH_* variables and the config
// file can supply the same settings.
func newRootCmd(v *viper.Viper, stdin *os.File, stderr io.Writer) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "ytbatch [url...]",
		Short: "Download videos and playlist ranges in bulk",
		Long: "ytbatch resolves the given URLs (or asks for them), lets you pick ranges of\n" +
			"every playlist and downloads the selection with a pool of workers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, stdin, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.StringP(config.KeyCookieFile, "c", "", "A txt file path in netscape format containing cookie information to be used for download.")
	flags.Int(config.KeyJobs, config.DefaultJobs, "number of concurrent downloads")
	flags.String(config.KeyBackend, config.BackendYtdlp, "media backend: ytdlp or native")
	flags.String(config.KeyFFmpeg, "", "path of the ffmpeg executable")
	flags.String(config.KeyOutputDir, "", "directory to save files in")
	flags.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	flags.Duration(config.KeyTimeout, config.DefaultTimeout, "per-request timeout of the native backend")
	flags.Bool(config.KeyInstallYtdlp, false, "download yt-dlp when it is not installed")

	for _, key := range []string{
		config.KeyCookieFile, config.KeyJobs, config.KeyBackend, config.KeyFFmpeg,
		config.KeyOutputDir, config.KeyLogLevel, config.KeyTimeout, config.KeyInstallYtdlp,
	} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", key, err))
		}
	}
	config.SetDefaults(v)
	return cmd
}

func initConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return errs.Wrap(errs.CategoryConfig, fmt.Errorf("read config %s: %w", file, err))
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, urls []string, stdin *os.File, stderr io.Writer) error {
	log, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return errs.Wrap(errs.CategoryConfig, err)
	}
	log = log.With().Str("run", uuid.NewString()).Logger()
	log.Debug().
		Str("backend", cfg.Backend).
		Int("jobs", cfg.Jobs).
		Msg("starting")

	provider, err := app.NewProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	in := bufio.NewReader(stdin)
	_, err = app.Run(ctx, cfg, urls, app.Deps{
		Provider: provider,
		Setup:    prompt.New(in, stderr, log),
		Selector: newSelector(stdin, in, stderr, log),
		Log:      log,
	})
	if errors.Is(err, app.ErrNothingSelected) {
		return nil
	}
	return err
}

// newSelector uses the full-screen selector on a terminal and the line
// prompt for piped input.
func newSelector(stdin *os.File, in *bufio.Reader, out io.Writer, log zerolog.Logger) selection.Selector {
	if selection.IsTerminal(stdin) && selection.IsTerminal(os.Stderr) {
		return selection.TUI{}
	}
	return selection.NewLinePrompt(in, out, log)
}
