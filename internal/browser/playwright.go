package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// replaceHTMLScript focuses the element, swaps its contents and fires an
// input event so editors listening for changes pick the new body up.
const replaceHTMLScript = `(el, html) => {
	el.focus();
	el.innerHTML = html;
	el.dispatchEvent(new Event('input', { bubbles: true }));
}`

// PlaywrightLauncher starts Chromium through playwright-go.
type PlaywrightLauncher struct{}

// NewPlaywrightLauncher returns the production Launcher.
func NewPlaywrightLauncher() *PlaywrightLauncher {
	return &PlaywrightLauncher{}
}

// Launch runs the driver, starts Chromium, opens one context with the
// configured viewport and creates the page every stage works on. Partial
// progress is unwound when a later step fails.
func (l *PlaywrightLauncher) Launch(opts LaunchOptions) (*Session, error) {
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, &LaunchError{Step: "install driver", Err: err}
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &LaunchError{Step: "start driver", Err: err}
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	pwBrowser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, &LaunchError{Step: "launch chromium", Err: err}
	}

	pwContext, err := pwBrowser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		_ = pwBrowser.Close()
		_ = pw.Stop()
		return nil, &LaunchError{Step: "create context", Err: err}
	}

	pwPage, err := pwContext.NewPage()
	if err != nil {
		_ = pwBrowser.Close()
		_ = pw.Stop()
		return nil, &LaunchError{Step: "create page", Err: err}
	}
	if opts.DefaultTimeout > 0 {
		pwPage.SetDefaultTimeout(millis(opts.DefaultTimeout))
	}

	return NewSession(&pwBrowserAdapter{b: pwBrowser}, &pwPageAdapter{p: pwPage}, pw.Stop), nil
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

type pwBrowserAdapter struct {
	b playwright.Browser
}

func (a *pwBrowserAdapter) Contexts() []Context {
	contexts := a.b.Contexts()
	out := make([]Context, 0, len(contexts))
	for _, c := range contexts {
		out = append(out, &pwContextAdapter{c: c})
	}
	return out
}

func (a *pwBrowserAdapter) Close() error {
	return a.b.Close()
}

type pwContextAdapter struct {
	c playwright.BrowserContext
}

func (a *pwContextAdapter) Pages() []Page {
	pages := a.c.Pages()
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, &pwPageAdapter{p: p})
	}
	return out
}

type pwPageAdapter struct {
	p playwright.Page
}

func (a *pwPageAdapter) Goto(url string, state LoadState) error {
	waitUntil := playwright.WaitUntilStateLoad
	if state == LoadStateNetworkIdle {
		waitUntil = playwright.WaitUntilStateNetworkidle
	}
	if _, err := a.p.Goto(url, playwright.PageGotoOptions{WaitUntil: waitUntil}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (a *pwPageAdapter) URL() string {
	return a.p.URL()
}

func (a *pwPageAdapter) Locator(selector string) Locator {
	return &pwLocatorAdapter{l: a.p.Locator(selector)}
}

func (a *pwPageAdapter) ByLabel(text string) Locator {
	return &pwLocatorAdapter{l: a.p.GetByLabel(text, playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)})}
}

func (a *pwPageAdapter) ByTestID(id string) Locator {
	return &pwLocatorAdapter{l: a.p.GetByTestId(id)}
}

func (a *pwPageAdapter) Frames() []Frame {
	frames := a.p.Frames()
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, &pwFrameAdapter{f: f})
	}
	return out
}

func (a *pwPageAdapter) WaitForURL(match func(string) bool, timeout time.Duration) error {
	return a.p.WaitForURL(match, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (a *pwPageAdapter) WaitForLoadState(state LoadState, timeout time.Duration) error {
	loadState := playwright.LoadStateLoad
	if state == LoadStateNetworkIdle {
		loadState = playwright.LoadStateNetworkidle
	}
	return a.p.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState,
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (a *pwPageAdapter) Screenshot(fullPage bool) ([]byte, error) {
	return a.p.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
	})
}

type pwFrameAdapter struct {
	f playwright.Frame
}

func (a *pwFrameAdapter) Name() string { return a.f.Name() }
func (a *pwFrameAdapter) URL() string  { return a.f.URL() }

func (a *pwFrameAdapter) Locator(selector string) Locator {
	return &pwLocatorAdapter{l: a.f.Locator(selector)}
}

type pwLocatorAdapter struct {
	l playwright.Locator
}

func (a *pwLocatorAdapter) Count() (int, error) {
	return a.l.Count()
}

func (a *pwLocatorAdapter) All() ([]Locator, error) {
	all, err := a.l.All()
	if err != nil {
		return nil, err
	}
	out := make([]Locator, 0, len(all))
	for _, l := range all {
		out = append(out, &pwLocatorAdapter{l: l})
	}
	return out, nil
}

func (a *pwLocatorAdapter) First() Locator {
	return &pwLocatorAdapter{l: a.l.First()}
}

func (a *pwLocatorAdapter) Click(timeout time.Duration) error {
	return a.l.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(millis(timeout))})
}

func (a *pwLocatorAdapter) Fill(value string, timeout time.Duration) error {
	return a.l.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(millis(timeout))})
}

func (a *pwLocatorAdapter) WaitVisible(timeout time.Duration) error {
	return a.l.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (a *pwLocatorAdapter) ReplaceHTML(html string) error {
	_, err := a.l.Evaluate(replaceHTMLScript, html)
	return err
}
