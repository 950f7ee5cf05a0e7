// Package campaign drives the admin console through campaign creation and
// captures the editor and preview checkpoints.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/capture"
	"github.com/sugarfunk/campaignshot/internal/config"
	"github.com/sugarfunk/campaignshot/internal/logging"
	"github.com/sugarfunk/campaignshot/internal/runner"
	"github.com/sugarfunk/campaignshot/internal/storage"
)

// Checkpoint labels
const (
	CheckpointEditor  = "editor"
	CheckpointPreview = "preview"
	CheckpointDebug   = "debug"
)

// Driver owns the browser session of one run and provides the stages that
// move it through the campaign flow.
type Driver struct {
	cfg      *config.Config
	launcher browser.Launcher
	backend  storage.Backend
	capturer *capture.Capturer
	auth     Authenticator
	sleep    func(time.Duration)
	content  string

	session   *browser.Session
	artifacts []Artifact
}

// Artifact is a checkpoint stored during the run. Present is set by the
// end-of-run check against the artifact sink.
type Artifact struct {
	Label   string
	Ref     *storage.Reference
	Present bool
}

// Option configures a Driver
type Option func(*Driver)

// WithSleep replaces time.Sleep for the bounded fallback delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Driver) { d.sleep = sleep }
}

// WithAuthenticator overrides the authenticator chosen from config.
func WithAuthenticator(a Authenticator) Option {
	return func(d *Driver) { d.auth = a }
}

// NewDriver creates a Driver. Screenshots go to backend tagged with runID.
func NewDriver(cfg *config.Config, launcher browser.Launcher, backend storage.Backend, runID string, opts ...Option) (*Driver, error) {
	d := &Driver{
		cfg:      cfg,
		launcher: launcher,
		backend:  backend,
		capturer: capture.NewCapturer(backend, cfg.Timeouts.Settle, runID),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	content, err := PrepareContent(cfg.Campaign)
	if err != nil {
		return nil, err
	}
	d.content = content
	if d.auth == nil {
		auth, err := NewAuthenticator(cfg)
		if err != nil {
			return nil, err
		}
		d.auth = auth
	}
	return d, nil
}

// Content returns the sanitized fragment written into the editor.
func (d *Driver) Content() string {
	return d.content
}

// Session returns the browser session, nil before bootstrap.
func (d *Driver) Session() *browser.Session {
	return d.session
}

// Stages returns the pipeline in execution order. Teardown is handled by
// the runner.
func (d *Driver) Stages() []runner.Stage {
	stage := func(id runner.StageID, policy runner.Policy, fn func(context.Context) error) runner.Stage {
		return runner.StageFunc{StageID: id, ErrorPolicy: policy, Fn: fn}
	}
	return []runner.Stage{
		stage(runner.StageBootstrap, runner.PolicyFatal, d.bootstrap),
		stage(runner.StageAuthenticate, runner.PolicyFatal, d.authenticate),
		stage(runner.StageNavigate, runner.PolicyFatal, d.navigate),
		stage(runner.StageFillForm, runner.PolicyFatal, d.fillForm),
		stage(runner.StageSelectList, runner.PolicySoft, d.selectList),
		stage(runner.StageTransition, runner.PolicyFatal, d.transition),
		stage(runner.StageCaptureEditor, runner.PolicySoft, d.captureEditor),
		stage(runner.StageInjectContent, runner.PolicySoft, d.injectContent),
		stage(runner.StagePreview, runner.PolicyFatal, d.preview),
	}
}

// Run executes the pipeline with the failure handler and teardown attached,
// then checks that every stored checkpoint is still in the artifact sink.
func (d *Driver) Run(ctx context.Context, logger *logrus.Entry) (*runner.Report, error) {
	r := runner.NewRunner(logger, d.Stages(),
		runner.WithFailureHandler(d.HandleFailure),
		runner.WithTeardown(d.Teardown),
	)
	report, err := r.Run(ctx)
	d.checkArtifacts(ctx, logger)
	return report, err
}

// Artifacts returns the checkpoints stored so far, in capture order.
func (d *Driver) Artifacts() []Artifact {
	return d.artifacts
}

func (d *Driver) capture(ctx context.Context, page browser.Page, cp capture.Checkpoint) error {
	ref, err := d.capturer.Capture(ctx, page, cp)
	if err != nil {
		return err
	}
	d.artifacts = append(d.artifacts, Artifact{Label: cp.Label, Ref: ref, Present: true})
	return nil
}

func (d *Driver) checkArtifacts(ctx context.Context, logger *logrus.Entry) {
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	for i := range d.artifacts {
		a := &d.artifacts[i]
		ok, err := d.backend.Exists(ctx, a.Ref)
		a.Present = ok && err == nil

		entry := logger.WithFields(logrus.Fields{
			"checkpoint": a.Label,
			"path":       a.Ref.Location,
		})
		switch {
		case err != nil:
			entry.WithError(err).Warn("Could not check artifact")
		case !ok:
			entry.Warn("Artifact missing after run")
		default:
			entry.Debug("Artifact present")
		}
	}
}

func (d *Driver) page() (browser.Page, error) {
	if d.session == nil || d.session.Page() == nil {
		return nil, browser.ErrNoPage
	}
	return d.session.Page(), nil
}

func (d *Driver) bootstrap(ctx context.Context) error {
	log := logging.FromContext(ctx)

	if err := d.backend.HealthCheck(ctx); err != nil {
		return fmt.Errorf("artifact sink: %w", err)
	}
	info := d.backend.GetInfo()
	log.WithFields(logrus.Fields{
		"backend": info.Type,
		"root":    info.Root,
	}).Debug("Artifact sink ready")

	b := d.cfg.Browser
	log.WithFields(logrus.Fields{
		"headless": b.Headless,
		"viewport": fmt.Sprintf("%dx%d", b.ViewportWidth, b.ViewportHeight),
	}).Info("Launching browser")

	session, err := d.launcher.Launch(browser.LaunchOptions{
		Headless:       b.Headless,
		Args:           b.Args,
		ViewportWidth:  b.ViewportWidth,
		ViewportHeight: b.ViewportHeight,
		DefaultTimeout: b.DefaultTimeout,
		ExecutablePath: b.ExecutablePath,
		Install:        b.Install,
	})
	if err != nil {
		return err
	}
	d.session = session
	return nil
}

func (d *Driver) authenticate(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	logging.FromContext(ctx).WithField("mode", d.auth.Name()).Info("Authenticating")
	return d.auth.Authenticate(ctx, page)
}

func (d *Driver) navigate(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	target := d.cfg.Target
	state := loadState(target.ReadyState)

	switch d.cfg.Navigation.Entry {
	case config.EntryList:
		log.WithField("url", target.CampaignsURL()).Info("Opening campaign list")
		if err := page.Goto(target.CampaignsURL(), state); err != nil {
			return fmt.Errorf("open campaign list: %w", err)
		}
		if err := page.Locator(linkTo(target.NewCampaignPath)).First().Click(d.cfg.Browser.DefaultTimeout); err != nil {
			return fmt.Errorf("open new campaign form: %w", err)
		}
		onForm, err := browser.URLMatcher("**"+target.NewCampaignPath+"**", "")
		if err != nil {
			return err
		}
		if err := page.WaitForURL(onForm, d.cfg.Timeouts.Transition); err != nil {
			return fmt.Errorf("wait for new campaign form: %w", err)
		}
	default:
		log.WithField("url", target.NewCampaignURL()).Info("Opening new campaign form")
		if err := page.Goto(target.NewCampaignURL(), state); err != nil {
			return fmt.Errorf("open new campaign form: %w", err)
		}
	}

	if err := page.Locator(SelectorFormInput).First().WaitVisible(d.cfg.Timeouts.Ready); err != nil {
		log.WithError(err).Debug("Form inputs not visible, settling")
		d.sleep(d.cfg.Timeouts.SettleFallback)
	}
	return nil
}

func (d *Driver) fillForm(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	_, err = FillForm(ctx, page, d.cfg.Campaign.Fields, d.cfg.Browser.DefaultTimeout)
	return err
}

func (d *Driver) selectList(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	return recovered(func() error { return d.pickList(ctx, page) })
}

func (d *Driver) pickList(ctx context.Context, page browser.Page) error {
	timeout := d.cfg.Timeouts.Selection

	if err := page.Locator(SelectorListTrigger).First().Click(timeout); err != nil {
		return fmt.Errorf("open list picker: %w", err)
	}
	if err := page.Locator(SelectorListMenu).First().WaitVisible(timeout); err != nil {
		logging.FromContext(ctx).WithError(err).Debug("List menu not visible, settling")
		d.sleep(d.cfg.Timeouts.SettleFallback)
	}
	if err := page.Locator(SelectorListOption).First().Click(timeout); err != nil {
		return fmt.Errorf("pick list: %w", err)
	}

	logging.FromContext(ctx).Info("List selected")
	return nil
}

func (d *Driver) transition(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)

	if err := page.Locator(SelectorContinue).First().Click(d.cfg.Browser.DefaultTimeout); err != nil {
		return fmt.Errorf("continue: %w", err)
	}
	if err := page.Locator(d.cfg.Campaign.EditorMarker).First().WaitVisible(d.cfg.Timeouts.Transition); err != nil {
		log.WithError(err).Debug("Editor marker not visible, settling")
		d.sleep(d.cfg.Timeouts.SettleFallback)
	}

	log.WithField("url", page.URL()).Info("Reached content editor")
	return nil
}

func (d *Driver) captureEditor(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	return d.capture(ctx, page, capture.Checkpoint{
		Label: CheckpointEditor,
		Path:  d.cfg.Screenshots.Editor,
	})
}

func (d *Driver) injectContent(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	if err := page.WaitForLoadState(browser.LoadStateNetworkIdle, d.cfg.Timeouts.Settle); err != nil {
		logging.FromContext(ctx).WithError(err).Debug("Network did not settle before injection")
	}
	_, err = InjectContent(ctx, page.Frames(), d.content, d.cfg.Timeouts.Selection)
	return err
}

// preview opens the preview overlay and captures it. Click, wait and
// capture failures, panics included, are logged; the checkpoint is
// attempted regardless.
func (d *Driver) preview(ctx context.Context) error {
	page, err := d.page()
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)

	if err := recovered(func() error { return d.openPreview(page) }); err != nil {
		log.WithError(err).Warn("Preview overlay did not open, capturing current state")
	}

	if err := recovered(func() error {
		return d.capture(ctx, page, capture.Checkpoint{
			Label: CheckpointPreview,
			Path:  d.cfg.Screenshots.Preview,
		})
	}); err != nil {
		log.WithError(err).Warn("Preview screenshot failed")
	}
	return nil
}

func (d *Driver) openPreview(page browser.Page) error {
	if err := page.Locator(SelectorPreview).First().Click(d.cfg.Browser.DefaultTimeout); err != nil {
		return fmt.Errorf("click preview: %w", err)
	}
	if err := page.Locator(SelectorModalActive).First().WaitVisible(d.cfg.Timeouts.Preview); err != nil {
		return fmt.Errorf("wait for preview overlay: %w", err)
	}
	return nil
}

// recovered runs fn and turns a panic into an error.
func recovered(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

// HandleFailure logs err and takes one full-page diagnostic capture of the
// first page of the first context. It does nothing more when no page exists.
func (d *Driver) HandleFailure(ctx context.Context, err error) {
	log := logging.FromContext(ctx)
	log.WithError(err).Error("Automation failed")

	if d.session == nil {
		log.Debug("No browser session, skipping diagnostic screenshot")
		return
	}
	page, perr := d.session.FirstPage()
	if perr != nil {
		log.WithError(perr).Debug("No page for diagnostic screenshot")
		return
	}

	if cerr := d.capture(ctx, page, capture.Checkpoint{
		Label:    CheckpointDebug,
		Path:     d.cfg.Screenshots.Debug,
		FullPage: true,
	}); cerr != nil {
		log.WithError(cerr).Debug("Diagnostic screenshot failed")
	}
	log.WithField("url", page.URL()).Info("Page at failure")
}

// Teardown closes the browser session. It is safe to call more than once.
func (d *Driver) Teardown(ctx context.Context) error {
	if d.session == nil {
		return nil
	}
	logging.FromContext(ctx).Info("Closing browser")
	return d.session.Close()
}
