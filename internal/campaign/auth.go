package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/config"
	"github.com/sugarfunk/campaignshot/internal/logging"
)

// Authenticator gets the page into the admin area.
type Authenticator interface {
	Name() string
	Authenticate(ctx context.Context, page browser.Page) error
}

// authFlow holds what the login and signup forms share: the address they
// live at and the signal that the admin area was reached.
type authFlow struct {
	loginURL    string
	readyState  browser.LoadState
	creds       config.CredentialsConfig
	ready       time.Duration
	redirect    time.Duration
	action      time.Duration
	inAdmin     func(string) bool
	onLoginPage func(string) bool
}

func newAuthFlow(cfg *config.Config) (*authFlow, error) {
	inAdmin, err := browser.URLMatcher(cfg.Target.AdminURLPattern, cfg.Target.LoginURLPattern)
	if err != nil {
		return nil, fmt.Errorf("admin url pattern: %w", err)
	}
	onLogin, err := browser.URLMatcher(cfg.Target.LoginURLPattern, "")
	if err != nil {
		return nil, fmt.Errorf("login url pattern: %w", err)
	}

	return &authFlow{
		loginURL:    cfg.Target.LoginURL(),
		readyState:  loadState(cfg.Target.ReadyState),
		creds:       cfg.Credentials,
		ready:       cfg.Timeouts.Ready,
		redirect:    cfg.Timeouts.LoginRedirect,
		action:      cfg.Browser.DefaultTimeout,
		inAdmin:     inAdmin,
		onLoginPage: onLogin,
	}, nil
}

func (f *authFlow) open(ctx context.Context, page browser.Page) error {
	logging.FromContext(ctx).WithField("url", f.loginURL).Info("Opening login page")
	if err := page.Goto(f.loginURL, f.readyState); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	return nil
}

// fillAll waits for the first selector to show, then fills each selector
// with its value in order.
func (f *authFlow) fillAll(page browser.Page, fields [][2]string) error {
	if err := page.Locator(fields[0][0]).First().WaitVisible(f.ready); err != nil {
		return fmt.Errorf("form not ready: %w", err)
	}
	for _, field := range fields {
		if err := page.Locator(field[0]).First().Fill(field[1], f.action); err != nil {
			return fmt.Errorf("fill %s: %w", field[0], err)
		}
	}
	return nil
}

// submit clicks the submit button and waits for the admin area. A page
// still on the login address fails with ErrAuthenticationFailed.
func (f *authFlow) submit(ctx context.Context, page browser.Page) error {
	if err := page.Locator(SelectorSubmit).First().Click(f.action); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	waitErr := page.WaitForURL(f.inAdmin, f.redirect)
	current := page.URL()
	if f.onLoginPage(current) {
		return fmt.Errorf("%w (at %s)", ErrAuthenticationFailed, current)
	}
	if waitErr != nil {
		return fmt.Errorf("wait for admin area: %w", waitErr)
	}

	logging.FromContext(ctx).WithField("url", current).Info("Authenticated")
	return nil
}

// LoginAuthenticator signs in with existing credentials.
type LoginAuthenticator struct {
	flow *authFlow
}

func (a *LoginAuthenticator) Name() string { return config.AuthModeLogin }

func (a *LoginAuthenticator) Authenticate(ctx context.Context, page browser.Page) error {
	if err := a.flow.open(ctx, page); err != nil {
		return err
	}
	return a.fillAndSubmit(ctx, page)
}

func (a *LoginAuthenticator) fillAndSubmit(ctx context.Context, page browser.Page) error {
	err := a.flow.fillAll(page, [][2]string{
		{SelectorUsername, a.flow.creds.Username},
		{SelectorPassword, a.flow.creds.Password},
	})
	if err != nil {
		return err
	}
	return a.flow.submit(ctx, page)
}

// ProvisionAuthenticator creates the first admin account through the
// signup form served at the login address.
type ProvisionAuthenticator struct {
	flow *authFlow
}

func (a *ProvisionAuthenticator) Name() string { return config.AuthModeProvision }

func (a *ProvisionAuthenticator) Authenticate(ctx context.Context, page browser.Page) error {
	if err := a.flow.open(ctx, page); err != nil {
		return err
	}
	return a.fillAndSubmit(ctx, page)
}

func (a *ProvisionAuthenticator) fillAndSubmit(ctx context.Context, page browser.Page) error {
	logging.FromContext(ctx).WithField("username", a.flow.creds.Username).Info("Provisioning admin account")
	err := a.flow.fillAll(page, [][2]string{
		{SelectorEmail, a.flow.creds.Email},
		{SelectorUsername, a.flow.creds.Username},
		{SelectorPassword, a.flow.creds.Password},
		{SelectorPasswordConfirm, a.flow.creds.Password},
	})
	if err != nil {
		return err
	}
	return a.flow.submit(ctx, page)
}

// AutoAuthenticator opens the login address once and picks signup when the
// password confirmation field is present, login otherwise.
type AutoAuthenticator struct {
	flow      *authFlow
	login     *LoginAuthenticator
	provision *ProvisionAuthenticator
}

func (a *AutoAuthenticator) Name() string { return config.AuthModeAuto }

func (a *AutoAuthenticator) Authenticate(ctx context.Context, page browser.Page) error {
	if err := a.flow.open(ctx, page); err != nil {
		return err
	}

	log := logging.FromContext(ctx)
	// Both forms carry the username field.
	if err := page.Locator(SelectorUsername).First().WaitVisible(a.flow.ready); err != nil {
		log.WithError(err).Debug("Username field not visible yet")
	}
	n, err := page.Locator(SelectorPasswordConfirm).Count()
	if err == nil && n > 0 {
		log.Info("Signup form detected")
		return a.provision.fillAndSubmit(ctx, page)
	}
	log.Info("Login form detected")
	return a.login.fillAndSubmit(ctx, page)
}

// NewAuthenticator returns the authenticator for cfg.Auth.Mode.
func NewAuthenticator(cfg *config.Config) (Authenticator, error) {
	flow, err := newAuthFlow(cfg)
	if err != nil {
		return nil, err
	}

	login := &LoginAuthenticator{flow: flow}
	provision := &ProvisionAuthenticator{flow: flow}

	switch cfg.Auth.Mode {
	case config.AuthModeLogin:
		return login, nil
	case config.AuthModeProvision:
		return provision, nil
	case config.AuthModeAuto:
		return &AutoAuthenticator{flow: flow, login: login, provision: provision}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthMode, cfg.Auth.Mode)
	}
}

func loadState(readyState string) browser.LoadState {
	if readyState == config.ReadyStateNetworkIdle {
		return browser.LoadStateNetworkIdle
	}
	return browser.LoadStateLoad
}
