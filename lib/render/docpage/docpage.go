// Package docpage implements render.Page over plain http documents: pages
// are fetched with resty and queried with goquery. Scripts are not run, so
// clicks on links navigate and clicks on anything else are no-ops.
package docpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"reviewharvest/lib/render"
	"reviewharvest/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("reviewharvest/lib/render/docpage")

type Options struct {
	UserAgent string
	// maximum requests per second, 0 disables rate limiting
	RateLimit float64
	// wraps the transport with cloudflare-bp
	Bypass bool
	// how often WaitVisible re-fetches the current page, defaults to 2s
	PollInterval time.Duration
	// if set, every http exchange is written here
	Output restyutil.InstrumentOutput
}

type Page struct {
	http         *resty.Client
	pollInterval time.Duration
	// documents created from a string are never re-fetched
	static bool

	mu      sync.RWMutex
	current *url.URL
	doc     *goquery.Document
	closed  bool
}

var _ render.Page = (*Page)(nil)

func newClient(opts Options) (*resty.Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.Bypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	client.SetHeader("accept", "text/html,application/xhtml+xml")

	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	restyutil.InstrumentClient(client, tracer, opts.Output)
	return client, nil
}

func New(opts Options) (*Page, error) {
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Page{http: client, pollInterval: poll}, nil
}

// Opener returns a render.Opener creating a fresh Page per session.
func Opener(opts Options) render.Opener {
	return func(ctx context.Context) (render.Page, error) {
		return New(opts)
	}
}

// FromHTML creates a page already showing `body`, as if it had been loaded
// from `pageUrl`. Waits on it never re-fetch.
func FromHTML(pageUrl, body string) (*Page, error) {
	page, err := New(Options{})
	if err != nil {
		return nil, err
	}
	current, err := url.Parse(pageUrl)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	page.static = true
	page.current = current
	page.doc = doc
	return page, nil
}

func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return ""
	}
	return p.current.String()
}

func (p *Page) document() (*goquery.Document, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, render.ErrSessionClosed
	}
	if p.doc == nil {
		return nil, render.ErrNotOpen
	}
	return p.doc, nil
}

func (p *Page) load(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "load")
	defer span.End()

	res, err := p.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		span.RecordError(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("load %s: %w: %w", target, render.ErrTimeout, err)
		}
		return fmt.Errorf("load %s: %w", target, err)
	}
	if res.IsError() {
		// like a browser, error pages are still rendered, waiting for an
		// element that is not on them is what fails.
		slog.DebugContext(ctx, "page responded with error status", "url", target, "status", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("parse %s: %w", target, err)
	}

	current, err := url.Parse(target)
	if err != nil {
		return err
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		current = res.RawResponse.Request.URL
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return render.ErrSessionClosed
	}
	p.current = current
	p.doc = doc
	return nil
}

func (p *Page) Open(ctx context.Context, target string, wait render.WaitCondition, timeout time.Duration) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return render.ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.DebugContext(ctx, "opening page", "url", target, "wait", wait.String(), "timeout", timeout)
	return p.load(ctx, target)
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		visible, err := p.Visible(ctx, selector)
		if err != nil {
			return err
		}
		if visible {
			return nil
		}
		if p.static {
			return fmt.Errorf("wait for %q: %w", selector, render.ErrTimeout)
		}

		timer := time.NewTimer(p.pollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			if parent.Err() != nil {
				return parent.Err()
			}
			return fmt.Errorf("wait for %q: %w", selector, render.ErrTimeout)
		}

		current := p.URL()
		err = p.load(ctx, current)
		if err != nil {
			slog.DebugContext(ctx, "reload while waiting failed", "url", current, "selector", selector, "err", err)
		}
	}
}

func (p *Page) Click(ctx context.Context, selector string) error {
	doc, err := p.document()
	if err != nil {
		return err
	}
	target, err := scope{root: doc.Selection}.first(selector)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	if isHidden(target) {
		return fmt.Errorf("click %q: element is not visible: %w", selector, render.ErrTimeout)
	}

	href, ok := target.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		slog.DebugContext(ctx, "click has no navigation", "selector", selector)
		return nil
	}

	p.mu.RLock()
	base := p.current
	p.mu.RUnlock()
	link, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("click %q: parse href: %w", selector, err)
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return p.load(ctx, link.String())
}

// ClickAt is a no-op on static documents, there is nothing laid out to hit.
func (p *Page) ClickAt(ctx context.Context, x, y int) error {
	_, err := p.document()
	return err
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.doc = nil
	return nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return scope{root: doc.Selection}.Text(ctx, selector)
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return scope{root: doc.Selection}.Texts(ctx, selector)
}

func (p *Page) Attr(ctx context.Context, selector, name string) (string, error) {
	doc, err := p.document()
	if err != nil {
		return "", err
	}
	return scope{root: doc.Selection}.Attr(ctx, selector, name)
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	doc, err := p.document()
	if err != nil {
		return false, err
	}
	return scope{root: doc.Selection}.Visible(ctx, selector)
}

func (p *Page) Elements(ctx context.Context, selector string) ([]render.Element, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return scope{root: doc.Selection}.Elements(ctx, selector)
}
