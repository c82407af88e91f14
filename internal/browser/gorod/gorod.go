// Package gorod drives Chrome through go-rod.
package gorod

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"ui_regression/internal/browser"
)

const DriverName = "rod"

func init() {
	browser.Register(DriverName, func(ctx context.Context, opts browser.Options) (browser.Browser, error) {
		return Launch(ctx, opts)
	})
}

type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     browser.Options
}

// Launch starts a Chrome managed by the rod launcher and connects to it.
func Launch(ctx context.Context, opts browser.Options) (*Browser, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("no-sandbox").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))
	if opts.Headless {
		l = l.Set("disable-gpu")
	}

	u, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	if opts.Logf != nil {
		opts.Logf("rod: chrome listening on %s", u)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	return &Browser{launcher: l, browser: b, opts: opts}, nil
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	// Detach from ctx so the tab outlives the call that created it.
	page = page.Context(context.Background())

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  b.opts.Width,
		Height: b.opts.Height,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &Page{page: page}, nil
}

func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

type Page struct {
	page *rod.Page
}

// eval runs one of the shared scripts; rod expects a function declaration.
func (p *Page) eval(ctx context.Context, script string) (*proto.RuntimeRemoteObject, error) {
	return p.page.Context(ctx).Eval("() => " + script)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	res, err := p.eval(ctx, "document.title")
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return res.Value.Str(), nil
}

func (p *Page) Count(ctx context.Context, selector, text string) (int, error) {
	res, err := p.eval(ctx, browser.CountScript(selector, text))
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", selector, err)
	}
	return res.Value.Int(), nil
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	res, err := p.eval(ctx, browser.VisibleScript(selector))
	if err != nil {
		return false, fmt.Errorf("check visibility of %s: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	res, err := p.eval(ctx, browser.TextScript(selector))
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return res.Value.Str(), nil
}

func (p *Page) Click(ctx context.Context, selector, text string) error {
	if text == "" {
		el, err := p.page.Context(ctx).Element(selector)
		if err != nil {
			return fmt.Errorf("click %s: %w", selector, err)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click %s: %w", selector, err)
		}
		return nil
	}

	res, err := p.eval(ctx, browser.ClickScript(selector, text))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("click %s: no element containing %q", selector, text)
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := p.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (p *Page) Close() error {
	return p.page.Close()
}
