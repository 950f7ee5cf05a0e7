// Package browsertest provides scripted in-memory implementations of the
// browser interfaces. Unknown selectors resolve to empty locators, so a page
// only needs to declare the elements a test cares about.
package browsertest

import (
	"errors"
	"fmt"
	"time"

	"github.com/sugarfunk/campaignshot/internal/browser"
)

// ErrTimeout is returned by waits and actions on elements that never appear.
var ErrTimeout = errors.New("timeout exceeded")

// Locator is a fake element set. N is the number of matched elements.
type Locator struct {
	Selector string
	N        int

	CountErr   error
	ClickErr   error
	FillErr    error
	WaitErr    error
	ReplaceErr error

	// Panics maps a method name ("Count", "Click", "Fill", "WaitVisible",
	// "ReplaceHTML") to the value it panics with.
	Panics map[string]interface{}

	// OnClick runs after a successful click.
	OnClick func()

	Clicks int
	Fills  []string
	HTML   string

	items []*Locator
}

// NewLocator returns a locator matching n elements.
func NewLocator(selector string, n int) *Locator {
	return &Locator{Selector: selector, N: n}
}

func (l *Locator) maybePanic(method string) {
	if v, ok := l.Panics[method]; ok {
		panic(v)
	}
}

func (l *Locator) Count() (int, error) {
	l.maybePanic("Count")
	if l.CountErr != nil {
		return 0, l.CountErr
	}
	return l.N, nil
}

// Items returns the per-element locators, creating them on first use.
func (l *Locator) Items() []*Locator {
	for len(l.items) < l.N {
		l.items = append(l.items, NewLocator(fmt.Sprintf("%s >> nth=%d", l.Selector, len(l.items)), 1))
	}
	return l.items
}

func (l *Locator) All() ([]browser.Locator, error) {
	if l.CountErr != nil {
		return nil, l.CountErr
	}
	items := l.Items()
	out := make([]browser.Locator, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out, nil
}

// First returns the locator itself, so actions on the first match are
// recorded on the set.
func (l *Locator) First() browser.Locator {
	return l
}

func (l *Locator) Click(time.Duration) error {
	l.maybePanic("Click")
	if l.ClickErr != nil {
		return l.ClickErr
	}
	if l.N == 0 {
		return fmt.Errorf("click %s: %w", l.Selector, ErrTimeout)
	}
	l.Clicks++
	if l.OnClick != nil {
		l.OnClick()
	}
	return nil
}

func (l *Locator) Fill(value string, _ time.Duration) error {
	l.maybePanic("Fill")
	if l.FillErr != nil {
		return l.FillErr
	}
	if l.N == 0 {
		return fmt.Errorf("fill %s: %w", l.Selector, ErrTimeout)
	}
	l.Fills = append(l.Fills, value)
	return nil
}

func (l *Locator) WaitVisible(time.Duration) error {
	l.maybePanic("WaitVisible")
	if l.WaitErr != nil {
		return l.WaitErr
	}
	if l.N == 0 {
		return fmt.Errorf("wait for %s: %w", l.Selector, ErrTimeout)
	}
	return nil
}

func (l *Locator) ReplaceHTML(html string) error {
	l.maybePanic("ReplaceHTML")
	if l.ReplaceErr != nil {
		return l.ReplaceErr
	}
	l.HTML = html
	return nil
}

// LastFill returns the most recent value filled, or "".
func (l *Locator) LastFill() string {
	if len(l.Fills) == 0 {
		return ""
	}
	return l.Fills[len(l.Fills)-1]
}

// Frame is a fake embedded document.
type Frame struct {
	FrameName string
	FrameURL  string
	Elements  map[string]*Locator
	Queries   int
}

// NewFrame returns an empty frame.
func NewFrame(name, url string) *Frame {
	return &Frame{FrameName: name, FrameURL: url, Elements: make(map[string]*Locator)}
}

func (f *Frame) Name() string { return f.FrameName }
func (f *Frame) URL() string  { return f.FrameURL }

func (f *Frame) Locator(selector string) browser.Locator {
	f.Queries++
	return f.Element(selector)
}

// Element returns the fake bound to selector, creating an empty one if needed.
func (f *Frame) Element(selector string) *Locator {
	if l, ok := f.Elements[selector]; ok {
		return l
	}
	if f.Elements == nil {
		f.Elements = make(map[string]*Locator)
	}
	l := NewLocator(selector, 0)
	f.Elements[selector] = l
	return l
}

// Screenshot records one Page.Screenshot call.
type Screenshot struct {
	URL      string
	FullPage bool
}

// Page is a fake tab. Goto sets CurrentURL unless OnGoto overrides it.
type Page struct {
	CurrentURL string

	Elements map[string]*Locator
	Labels   map[string]*Locator
	TestIDs  map[string]*Locator
	FrameSet []browser.Frame

	GotoErr       error
	GotoErrs      map[string]error
	WaitURLErr    error
	LoadStateErr  error
	ScreenshotErr error
	ScreenshotPNG []byte

	// OnGoto replaces the default address update.
	OnGoto func(url string)

	Visited     []string
	LoadWaits   []browser.LoadState
	Screenshots []Screenshot
}

// NewPage returns a page at url with no elements.
func NewPage(url string) *Page {
	return &Page{
		CurrentURL:    url,
		Elements:      make(map[string]*Locator),
		Labels:        make(map[string]*Locator),
		TestIDs:       make(map[string]*Locator),
		ScreenshotPNG: []byte("\x89PNG fake"),
	}
}

// Set declares that selector matches n elements and returns the fake.
func (p *Page) Set(selector string, n int) *Locator {
	l := NewLocator(selector, n)
	if p.Elements == nil {
		p.Elements = make(map[string]*Locator)
	}
	p.Elements[selector] = l
	return l
}

// Element returns the fake bound to selector, creating an empty one if needed.
func (p *Page) Element(selector string) *Locator {
	if l, ok := p.Elements[selector]; ok {
		return l
	}
	if p.Elements == nil {
		p.Elements = make(map[string]*Locator)
	}
	l := NewLocator(selector, 0)
	p.Elements[selector] = l
	return l
}

func (p *Page) Goto(url string, _ browser.LoadState) error {
	p.Visited = append(p.Visited, url)
	if err, ok := p.GotoErrs[url]; ok {
		return err
	}
	if p.GotoErr != nil {
		return p.GotoErr
	}
	if p.OnGoto != nil {
		p.OnGoto(url)
		return nil
	}
	p.CurrentURL = url
	return nil
}

func (p *Page) URL() string { return p.CurrentURL }

func (p *Page) Locator(selector string) browser.Locator {
	return p.Element(selector)
}

func (p *Page) ByLabel(text string) browser.Locator {
	if l, ok := p.Labels[text]; ok {
		return l
	}
	return NewLocator("label="+text, 0)
}

func (p *Page) ByTestID(id string) browser.Locator {
	if l, ok := p.TestIDs[id]; ok {
		return l
	}
	return NewLocator("testid="+id, 0)
}

func (p *Page) Frames() []browser.Frame { return p.FrameSet }

func (p *Page) WaitForURL(match func(string) bool, _ time.Duration) error {
	if p.WaitURLErr != nil {
		return p.WaitURLErr
	}
	if match(p.CurrentURL) {
		return nil
	}
	return fmt.Errorf("wait for url (at %s): %w", p.CurrentURL, ErrTimeout)
}

func (p *Page) WaitForLoadState(state browser.LoadState, _ time.Duration) error {
	p.LoadWaits = append(p.LoadWaits, state)
	return p.LoadStateErr
}

func (p *Page) Screenshot(fullPage bool) ([]byte, error) {
	p.Screenshots = append(p.Screenshots, Screenshot{URL: p.CurrentURL, FullPage: fullPage})
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return p.ScreenshotPNG, nil
}

// Context is a fake browsing context.
type Context struct {
	PageSet []browser.Page
}

func (c *Context) Pages() []browser.Page { return c.PageSet }

// Browser is a fake browser process that counts Close calls.
type Browser struct {
	ContextSet []browser.Context
	CloseErr   error
	Closes     int
}

func (b *Browser) Contexts() []browser.Context { return b.ContextSet }

func (b *Browser) Close() error {
	b.Closes++
	return b.CloseErr
}

// Session wraps page in a Browser with one context and returns both. The
// returned Browser counts closes; stops counts driver shutdowns.
func Session(page *Page) (*browser.Session, *Browser, *int) {
	b := &Browser{}
	if page != nil {
		b.ContextSet = []browser.Context{&Context{PageSet: []browser.Page{page}}}
	}
	stops := new(int)
	var p browser.Page
	if page != nil {
		p = page
	}
	s := browser.NewSession(b, p, func() error {
		*stops++
		return nil
	})
	return s, b, stops
}

// Launcher is a fake browser.Launcher.
type Launcher struct {
	Session *browser.Session
	Err     error
	Options []browser.LaunchOptions
}

func (l *Launcher) Launch(opts browser.LaunchOptions) (*browser.Session, error) {
	l.Options = append(l.Options, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Session, nil
}
