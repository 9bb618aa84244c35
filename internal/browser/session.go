package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"indigorun/internal/logging"
)

// ErrNoDriver is returned by Session.Driver callers when Open was never
// called or the last Replace failed.
var ErrNoDriver = errors.New("browser: no live driver")

// Session exclusively owns the current Driver for a run. Replacing the
// driver is an explicit operation: the old instance is closed best-effort
// and a fresh one launched.
type Session struct {
	launcher Launcher
	log      *slog.Logger

	drv      Driver
	restarts int
}

// NewSession returns an unopened Session.
func NewSession(l Launcher) *Session {
	return &Session{launcher: l, log: logging.New("browser")}
}

// Open launches the first driver. It is a no-op when a driver is live.
func (s *Session) Open(ctx context.Context) error {
	if s.drv != nil {
		return nil
	}
	drv, err := s.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	s.drv = drv
	s.log.Info("browser session started")
	return nil
}

// Driver returns the live driver, or nil.
func (s *Session) Driver() Driver { return s.drv }

// Replace closes the current driver (close errors are logged, not returned)
// and launches a replacement.
func (s *Session) Replace(ctx context.Context) error {
	s.release()
	drv, err := s.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("relaunch browser: %w", err)
	}
	s.drv = drv
	s.restarts++
	s.log.Info("browser session restarted", slog.Int("restarts", s.restarts))
	return nil
}

// Restarts counts successful Replace calls.
func (s *Session) Restarts() int { return s.restarts }

// Close releases the driver. Errors are logged and returned.
func (s *Session) Close() error {
	if s.drv == nil {
		return nil
	}
	err := s.drv.Close()
	s.drv = nil
	if err != nil {
		s.log.Warn("error closing browser", slog.Any("err", err))
		return err
	}
	s.log.Info("browser closed")
	return nil
}

func (s *Session) release() {
	if s.drv == nil {
		return
	}
	if err := s.drv.Close(); err != nil {
		s.log.Warn("error closing dead browser session", slog.Any("err", err))
	}
	s.drv = nil
}
