package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-web2pdf/internal/process"
)

// pageRenderer abstracts the headless browser engine so the capture pipeline
// can be tested without Chrome.
type pageRenderer interface {
	Render(ctx context.Context, url string, opts renderOptions) (renderedPage, error)
	Healthy() bool
	Close() error
}

// renderedPage is one exclusively-owned browser page, fully navigated and
// settled, exposing the operations the capture pipeline needs.
type renderedPage interface {
	Dimensions() (PageDimensions, error)
	ScrollTo(y int) error
	CaptureRegion(offsetY, height int) ([]byte, error)
	Links() ([]string, error)
	HTML() (string, error)
	Title() string
	Close() error
}

// Compile-time interface checks
var (
	_ pageRenderer = (*rodRenderer)(nil)
	_ renderedPage = (*rodPage)(nil)
)

// renderOptions configures one page render.
type renderOptions struct {
	viewportWidth  int
	viewportHeight int
	navTimeout     time.Duration
	contentWait    time.Duration
	cleanupPage    bool
}

// Fallback navigation uses half the strict timeout.
const navFallbackDivisor = 2

// networkIdleWindow is how long the network must stay quiet before the
// strict wait considers navigation complete.
const networkIdleWindow = 500 * time.Millisecond

// rodRenderer implements pageRenderer using go-rod. The browser process is
// a lazily-launched shared resource: on observed disconnection the reference
// is reset and a fresh engine is relaunched on the next render.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *log.Logger
}

// newRodRenderer creates a rodRenderer. The browser is not launched until
// the first render.
func newRodRenderer(logger *log.Logger) *rodRenderer {
	return &rodRenderer{logger: logger}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") != "" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return browser, nil
}

// reset drops the browser reference so the next render relaunches.
func (r *rodRenderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.browser = nil
	r.launcher = nil
}

// Healthy reports whether a connected browser is currently held.
func (r *rodRenderer) Healthy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser != nil
}

// Close releases the browser and kills any orphaned engine processes.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	browser := r.browser
	l := r.launcher
	r.browser = nil
	r.launcher = nil
	r.mu.Unlock()

	if browser == nil {
		return nil
	}
	err := browser.Close()
	if l != nil {
		l.Kill()
		if pid := l.PID(); pid != 0 {
			process.KillProcessGroup(pid)
		}
	}
	return err
}

// isDisconnect reports whether err indicates the engine process died or the
// control connection broke.
func isDisconnect(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "websocket") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "browser has been closed")
}

// classifyNavigationError wraps a raw navigation failure in the matching
// sentinel category: timeout, DNS, or generic navigation.
func classifyNavigationError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	case strings.Contains(err.Error(), "ERR_NAME_NOT_RESOLVED"),
		strings.Contains(err.Error(), "ERR_DNS"):
		return fmt.Errorf("%w: %v", ErrDNSResolution, err)
	default:
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
}

// Render opens a page, blocks non-essential resources, navigates with a
// strict network-idle wait, retries once with a looser DOM-loaded wait on
// failure, then settles dynamic content before handing the page over.
func (r *rodRenderer) Render(ctx context.Context, url string, opts renderOptions) (renderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		if isDisconnect(err) {
			r.reset()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	page = page.Context(ctx)

	rp := &rodPage{page: page, logger: r.logger}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.viewportWidth,
		Height:            opts.viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: set viewport: %v", ErrPageCreate, err)
	}

	stopBlocking := r.blockResources(page)

	if err := r.navigate(page, url, opts.navTimeout); err != nil {
		stopBlocking()
		_ = page.Close()
		if isDisconnect(err) {
			r.reset()
		}
		return nil, err
	}

	rp.settle(opts.contentWait)
	if opts.cleanupPage {
		rp.removeClutter()
	}

	rp.stopBlocking = stopBlocking
	return rp, nil
}

// blockResources aborts requests for non-essential resource types before
// they hit the network, bounding load time and memory. The returned stop
// function tears the interception router down.
func (r *rodRenderer) blockResources(page *rod.Page) func() {
	router := page.HijackRequests()

	blocked := []proto.NetworkResourceType{
		proto.NetworkResourceTypeFont,
		proto.NetworkResourceTypeMedia,
		proto.NetworkResourceTypeWebSocket,
	}
	for _, resourceType := range blocked {
		err := router.Add("*", resourceType, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
		if err != nil {
			r.logger.Debug("resource blocking unavailable", "err", err)
			return func() {}
		}
	}

	go router.Run()
	return func() { _ = router.Stop() }
}

// navigate attempts a strict network-idle navigation, falling back once to
// a looser DOM-loaded wait with a shorter timeout.
func (r *rodRenderer) navigate(page *rod.Page, url string, timeout time.Duration) error {
	strictErr := func() error {
		p := page.Timeout(timeout)
		defer p.CancelTimeout()

		wait := p.WaitRequestIdle(networkIdleWindow, nil, nil, nil)
		if err := p.Navigate(url); err != nil {
			return err
		}
		wait()
		return p.WaitLoad()
	}()
	if strictErr == nil {
		return nil
	}

	r.logger.Debug("strict navigation failed, retrying with DOM-loaded wait",
		"url", url, "err", strictErr)

	looseErr := func() error {
		p := page.Timeout(timeout / navFallbackDivisor)
		defer p.CancelTimeout()

		if err := p.Navigate(url); err != nil {
			return err
		}
		return p.WaitDOMStable(300*time.Millisecond, 0)
	}()
	if looseErr == nil {
		return nil
	}

	// Report the strict attempt's category; it saw the original failure.
	return classifyNavigationError(strictErr)
}

// rodPage implements renderedPage on a live rod page.
type rodPage struct {
	page         *rod.Page
	logger       *log.Logger
	stopBlocking func()
}

// Close releases the page and its interception router.
func (p *rodPage) Close() error {
	if p.stopBlocking != nil {
		p.stopBlocking()
	}
	return p.page.Close()
}

// Dimensions measures the page once. Later growth of the page is not
// observed; the capture plan is computed from this snapshot.
func (p *rodPage) Dimensions() (PageDimensions, error) {
	obj, err := p.page.Eval(`() => ({
		w: Math.max(document.documentElement.scrollWidth, document.body.scrollWidth),
		h: Math.max(document.documentElement.scrollHeight, document.body.scrollHeight),
		vh: window.innerHeight,
	})`)
	if err != nil {
		return PageDimensions{}, fmt.Errorf("measuring page: %w", err)
	}
	return PageDimensions{
		TotalWidth:     obj.Value.Get("w").Int(),
		TotalHeight:    obj.Value.Get("h").Int(),
		ViewportHeight: obj.Value.Get("vh").Int(),
	}, nil
}

// ScrollTo jumps to the absolute vertical offset without smooth scrolling.
func (p *rodPage) ScrollTo(y int) error {
	_, err := p.page.Eval(`(y) => {
		window.scrollTo({ top: y, left: 0, behavior: "instant" });
		window.dispatchEvent(new Event("scroll"));
	}`, y)
	if err != nil {
		return fmt.Errorf("scrolling to %d: %w", y, err)
	}
	return nil
}

// CaptureRegion screenshots the horizontal band starting at offsetY. The
// clip is absolute page coordinates; capture-beyond-viewport keeps the band
// renderable regardless of the current scroll position.
func (p *rodPage) CaptureRegion(offsetY, height int) ([]byte, error) {
	width, err := p.page.Eval(`() => window.innerWidth`)
	if err != nil {
		return nil, fmt.Errorf("reading viewport width: %w", err)
	}

	return p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      float64(offsetY),
			Width:  float64(width.Value.Int()),
			Height: float64(height),
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
}

// Links returns the href of every anchor in the rendered DOM, resolved by
// the browser to absolute form.
func (p *rodPage) Links() ([]string, error) {
	obj, err := p.page.Eval(`() => Array.from(document.querySelectorAll("a[href]"), a => a.href)`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	var links []string
	for _, v := range obj.Value.Arr() {
		links = append(links, v.Str())
	}
	return links, nil
}

// HTML returns the current serialized DOM.
func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

// Title returns the document title, empty on failure.
func (p *rodPage) Title() string {
	obj, err := p.page.Eval(`() => document.title`)
	if err != nil {
		return ""
	}
	return obj.Value.Str()
}

// settle waits for dynamic content: document readiness, referenced images
// (bounded per image, stragglers tolerated), then one synthetic scroll pass
// top to bottom and back to trigger lazy-loaded content. Every step here is
// best-effort; failures are logged and swallowed, never fatal.
func (p *rodPage) settle(contentWait time.Duration) {
	page := p.page.Timeout(contentWait)
	defer page.CancelTimeout()

	if err := page.WaitLoad(); err != nil {
		p.logger.Debug("document ready wait failed", "err", err)
	}

	if _, err := page.Eval(imageSettleJS); err != nil {
		p.logger.Debug("image settle wait failed", "err", err)
	}

	if _, err := page.Eval(lazyLoadScrollJS); err != nil {
		p.logger.Debug("lazy-load scroll pass failed", "err", err)
	}
}

// removeClutter strips known overlay selectors and forces fixed/sticky
// elements out of the visual flow so they do not repeat in every segment.
func (p *rodPage) removeClutter() {
	if _, err := p.page.Eval(removeClutterJS); err != nil {
		p.logger.Debug("clutter removal failed", "err", err)
	}
}

// imageSettleJS switches lazy images to eager loading and waits for every
// currently-referenced image, bounded to 8s per image so one straggler
// cannot stall the capture.
const imageSettleJS = `async () => {
	for (const img of document.querySelectorAll("img")) {
		if (img.loading === "lazy") img.loading = "eager";
		if (img.dataset.src) img.src = img.dataset.src;
		if (img.dataset.srcset) img.srcset = img.dataset.srcset;
	}
	await Promise.all(Array.from(document.images, img => {
		if (img.complete) return Promise.resolve();
		return new Promise(resolve => {
			const done = () => { img.onload = null; img.onerror = null; resolve(); };
			img.onload = done;
			img.onerror = done;
			setTimeout(done, 8000);
		});
	}));
	if (document.fonts) await document.fonts.ready;
}`

// lazyLoadScrollJS performs one synthetic scroll pass in fixed steps with
// brief pauses, then returns to the top and waits two animation frames for
// layout to stabilize.
const lazyLoadScrollJS = `async () => {
	const delay = ms => new Promise(res => setTimeout(res, ms));
	const prior = document.documentElement.style.scrollBehavior;
	document.documentElement.style.scrollBehavior = "auto";

	const step = Math.max(200, window.innerHeight / 2);
	let current = 0;
	while (current + window.innerHeight < document.body.scrollHeight) {
		current = Math.min(current + step, document.body.scrollHeight - window.innerHeight);
		window.scrollTo(0, current);
		window.dispatchEvent(new Event("scroll"));
		await delay(250);
	}

	window.scrollTo(0, 0);
	window.dispatchEvent(new Event("scroll"));
	await delay(400);
	await new Promise(res => requestAnimationFrame(() => requestAnimationFrame(res)));

	document.documentElement.style.scrollBehavior = prior;
}`

// removeClutterJS removes cookie banners, modals, and ad containers, and
// neutralizes fixed/sticky positioning.
const removeClutterJS = `() => {
	const selectors = [
		'[id*="cookie"]', '[class*="cookie"]',
		'[id*="consent"]', '[class*="consent"]',
		'[class*="modal"]', '[class*="popup"]', '[class*="overlay"]',
		'[id*="ad-"]', '[class*="ad-banner"]', '[class*="advertisement"]',
	];
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) el.remove();
	}
	for (const el of document.querySelectorAll("*")) {
		const position = getComputedStyle(el).position;
		if (position === "fixed" || position === "sticky") {
			el.style.position = "absolute";
		}
	}
}`
