// Package fetch drives a real desktop Chrome window through search pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultUserAgent matches a current desktop Chrome on Windows.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Defaults for the browser window and navigation.
const (
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultNavTimeout  = 45 * time.Second
	consentTimeout     = 5 * time.Second
	consentSettleDelay = time.Second
)

// ConsentXPath finds the cookie-consent buttons shown to new visitors.
const ConsentXPath = `//button[contains(., 'Reject all') or contains(., 'Accept all')]`

// hideWebdriver runs before any page script on every new document.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// ErrSessionClosed is returned once the browser has gone away.
var ErrSessionClosed = errors.New("browser session closed")

// Options configures the browser window.
type Options struct {
	Headless   bool
	ExecPath   string
	UserAgent  string
	Width      int
	Height     int
	NavTimeout time.Duration
}

// DefaultOptions returns a visible, maximized desktop browser.
func DefaultOptions() Options {
	return Options{
		UserAgent:  DefaultUserAgent,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		NavTimeout: DefaultNavTimeout,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = def.UserAgent
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = def.NavTimeout
	}
	return o
}

// allocatorOptions builds the Chrome command line.
func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(o.Width, o.Height),
		chromedp.UserAgent(o.UserAgent),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// Session is one browser window with a single tab. It is not safe for concurrent
// navigation; the pipeline drives it from one goroutine.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navigations chan struct{}
	opts        Options
}

// NewSession launches Chrome and prepares its tab. The browser lives until Close
// is called or parent is cancelled.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts.allocatorOptions()...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navigations: make(chan struct{}, 1),
		opts:        opts,
	}

	chromedp.ListenTarget(browserCtx, func(ev any) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame.ParentID == "" {
			select {
			case s.navigations <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
			return err
		}),
	)
	if err != nil {
		cancel()
		allocCancel()
		return nil, &Error{Op: "start", Message: "failed to launch browser", Cause: err}
	}

	zap.L().Info("browser started",
		zap.Bool("headless", opts.Headless),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return s, nil
}

// run executes actions on the tab, bounded by ctx and timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits until the document body is ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.opts.NavTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	// The load itself is not a navigation anyone is waiting for.
	s.drainNavigations()
	if err != nil {
		return &Error{Op: "navigate", URL: url, Message: "page did not load", Cause: err}
	}
	return nil
}

// Location returns the tab's current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, s.opts.NavTimeout, chromedp.Location(&location)); err != nil {
		return "", &Error{Op: "location", Message: "failed to read URL", Cause: err}
	}
	return location, nil
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.opts.NavTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &Error{Op: "html", Message: "failed to read document", Cause: err}
	}
	return html, nil
}

// WaitNavigation blocks until the top-level frame navigates. It has no timeout of
// its own.
func (s *Session) WaitNavigation(ctx context.Context) error {
	select {
	case <-s.navigations:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// DismissConsent clicks the cookie-consent button when one is shown. It reports
// whether a button was clicked.
func (s *Session) DismissConsent(ctx context.Context) (bool, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, consentTimeout,
		chromedp.Nodes(ConsentXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)),
	)
	if err != nil {
		return false, &Error{Op: "consent", Message: "failed to look for consent button", Cause: err}
	}
	if len(nodes) == 0 {
		return false, nil
	}

	err = s.run(ctx, consentTimeout,
		chromedp.MouseClickNode(nodes[0]),
		chromedp.Sleep(consentSettleDelay),
	)
	if err != nil {
		return false, &Error{Op: "consent", Message: "failed to click consent button", Cause: err}
	}
	s.drainNavigations()
	return true, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	zap.L().Info("browser closed")
	return nil
}

func (s *Session) drainNavigations() {
	select {
	case <-s.navigations:
	default:
	}
}
