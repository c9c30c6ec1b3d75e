package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/config"
	"github.com/lvcoi/ytbatch/internal/errs"
	"github.com/lvcoi/ytbatch/internal/media"
)

// NewProvider builds the media provider for cfg.Backend.
func NewProvider(ctx context.Context, cfg config.Config, log zerolog.Logger) (media.Provider, error) {
	switch cfg.Backend {
	case config.BackendNative:
		p, err := media.NewNativeProvider(cfg.CookieFile, cfg.Timeout, log)
		if err != nil {
			return nil, errs.Wrap(errs.CategoryConfig, err)
		}
		return p, nil
	case config.BackendYtdlp:
		if cfg.InstallYtdlp {
			if err := media.InstallYtdlp(ctx, log); err != nil {
				return nil, errs.Wrap(errs.CategoryConfig, err)
			}
		}
		return media.NewYtdlpProvider(cfg.CookieFile, log), nil
	default:
		return nil, errs.Wrapf(errs.CategoryConfig, "unknown backend %q", cfg.Backend)
	}
}
