// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"slidefit/config"
	"slidefit/layout"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Fonts are parsed once and shared read-only by all pagination runs.
	Fonts *layout.Fonts

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// PrepareFonts parses measurement fonts selected by configuration.
func (e *LocalEnv) PrepareFonts() error {
	if e.Fonts != nil {
		return nil
	}
	fc := e.Cfg.Pagination.Fonts
	fonts, err := layout.LoadFonts(fc.Regular, fc.Bold)
	if err != nil {
		return fmt.Errorf("unable to load measurement fonts: %w", err)
	}
	e.Fonts = fonts
	if e.Log != nil {
		e.Log.Debug("Measurement fonts loaded", zap.String("regular", fc.Regular), zap.String("bold", fc.Bold))
	}
	return nil
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
