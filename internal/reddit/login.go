package reddit

import (
	"context"
	"fmt"
	"time"

	"threadpulse/internal/page"
	"threadpulse/internal/pacing"

	"go.uber.org/zap"
)

// Credentials are the reddit account credentials, loaded from the
// environment by config.
type Credentials struct {
	Username string
	Password string
}

// LoginConfig tunes the login flow. Zero values select the defaults.
type LoginConfig struct {
	LoginURL    string        // default BaseURL + "/login/"
	HomeURL     string        // default BaseURL + "/"
	FormWait    time.Duration // default 60s
	ConfirmWait time.Duration // default 30s
}

func (c LoginConfig) loginURL() string {
	if c.LoginURL != "" {
		return c.LoginURL
	}
	return BaseURL + "/login/"
}

func (c LoginConfig) homeURL() string {
	if c.HomeURL != "" {
		return c.HomeURL
	}
	return BaseURL + "/"
}

func (c LoginConfig) formWait() time.Duration {
	if c.FormWait > 0 {
		return c.FormWait
	}
	return 60 * time.Second
}

func (c LoginConfig) confirmWait() time.Duration {
	if c.ConfirmWait > 0 {
		return c.ConfirmWait
	}
	return 30 * time.Second
}

var (
	usernameStrategies = []page.Strategy{{Selector: "input[name='username']"}}
	passwordStrategies = []page.Strategy{{Selector: "input[name='password']"}}
	loginStrategies    = []page.Strategy{{Selector: "button", Text: "Log In"}}
)

// Login establishes the reddit session: navigate to the login page,
// dismiss any cookie banner, fill credentials with human pacing, submit,
// and confirm by watching for the home URL. Failing to reach the login
// form fails the run; an unconfirmed redirect after submitting is only a
// warning, since reddit sometimes lands logged-in users elsewhere.
func Login(ctx context.Context, p page.Page, creds Credentials, pacer pacing.Pacer, cfg LoginConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("logging into reddit")
	if err := p.Navigate(ctx, cfg.loginURL()); err != nil {
		return fmt.Errorf("navigate to login page: %w", err)
	}
	p.WaitStable(stableWait)

	if banner, _, found := page.FindFirst(p, cookieBannerStrategies); found {
		if err := banner.Click(); err == nil {
			log.Debug("cookie banner dismissed")
			pacer.Pause(pacing.Short)
		}
	}

	username, found := page.WaitVisible(ctx, p, usernameStrategies, cfg.formWait(), 0)
	if !found {
		return fmt.Errorf("login form not found")
	}
	if err := username.Input(creds.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	pacer.Pause(pacing.Short)

	password, _, found := page.FindFirst(p, passwordStrategies)
	if !found {
		return fmt.Errorf("password field not found")
	}
	if err := password.Input(creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	pacer.Pause(pacing.Short)

	submit, _, found := page.FindFirst(p, loginStrategies)
	if !found {
		return fmt.Errorf("login button not found")
	}
	if err := submit.Click(); err != nil {
		return fmt.Errorf("click login button: %w", err)
	}

	if confirmLogin(ctx, p, cfg.homeURL(), cfg.confirmWait()) {
		log.Info("logged in")
	} else {
		log.Warn("login confirmation ambiguous, continuing")
	}
	pacer.Pause(pacing.Step)
	return nil
}

// confirmLogin polls the page URL until it reaches the home page or the
// wait elapses.
func confirmLogin(ctx context.Context, p page.Page, homeURL string, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		if p.URL() == homeURL {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(500 * time.Millisecond):
		}
	}
}
