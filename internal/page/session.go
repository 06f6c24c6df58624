package page

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// SessionConfig holds browser session settings.
type SessionConfig struct {
	Headless            bool
	ViewportWidth       int
	ViewportHeight      int
	NavigationTimeoutMs int
}

// DefaultSessionConfig returns sensible defaults. Headless is off by
// default: a visible browser profile draws less anti-automation attention.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation timeout as a duration.
func (c SessionConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session owns one launched Chrome instance with a single open page.
// The run drives exactly one page at a time; there is no session pool.
type Session struct {
	cfg     SessionConfig
	log     *zap.Logger
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

// NewSession launches Chrome, connects, and opens a blank page.
func NewSession(ctx context.Context, cfg SessionConfig, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	launch := launcher.New().Headless(cfg.Headless)
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	pg, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		launch.Cleanup()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(pg); err != nil {
		log.Warn("failed to set viewport", zap.Error(err))
	}

	log.Debug("browser session started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Int("viewport_height", cfg.ViewportHeight))

	return &Session{
		cfg:     cfg,
		log:     log,
		launch:  launch,
		browser: browser,
		page:    pg,
	}, nil
}

// Page returns the session's page handle.
func (s *Session) Page() Page {
	return &rodPage{page: s.page, navTimeout: s.cfg.NavigationTimeout()}
}

// Close shuts down the page, the browser, and the launched process.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launch != nil {
		s.launch.Cleanup()
		s.launch = nil
	}
	return err
}
