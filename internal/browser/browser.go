// Package browser is the driver port used by the campaign pipeline: a narrow
// set of page, frame and locator operations plus the Session that owns the
// browser process. The Playwright adapter in this package is the production
// implementation; browsertest provides in-memory fakes.
package browser

import "time"

// LoadState is a page readiness gate.
type LoadState string

const (
	LoadStateLoad        LoadState = "load"
	LoadStateNetworkIdle LoadState = "networkidle"
)

// Locator addresses zero or more elements within a page or frame.
type Locator interface {
	Count() (int, error)
	All() ([]Locator, error)
	First() Locator
	Click(timeout time.Duration) error
	Fill(value string, timeout time.Duration) error
	WaitVisible(timeout time.Duration) error
	// ReplaceHTML focuses the element and replaces its contents with html.
	ReplaceHTML(html string) error
}

// Frame is one embedded document of a page. The main frame is included.
type Frame interface {
	Name() string
	URL() string
	Locator(selector string) Locator
}

// Page is a single tab.
type Page interface {
	Goto(url string, state LoadState) error
	URL() string
	Locator(selector string) Locator
	ByLabel(text string) Locator
	ByTestID(id string) Locator
	// Frames returns the attached frames in page order.
	Frames() []Frame
	// WaitForURL blocks until match accepts the current address.
	WaitForURL(match func(string) bool, timeout time.Duration) error
	WaitForLoadState(state LoadState, timeout time.Duration) error
	Screenshot(fullPage bool) ([]byte, error)
}

// Context is an isolated browsing context.
type Context interface {
	Pages() []Page
}

// Browser is a running browser process.
type Browser interface {
	Contexts() []Context
	Close() error
}

// LaunchOptions configures Launcher.Launch.
type LaunchOptions struct {
	Headless       bool
	Args           []string
	ViewportWidth  int
	ViewportHeight int
	DefaultTimeout time.Duration
	ExecutablePath string
	Install        bool
}

// Launcher starts a browser and returns a Session holding a fresh page.
type Launcher interface {
	Launch(opts LaunchOptions) (*Session, error)
}
