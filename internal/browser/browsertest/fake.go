// Package browsertest provides an in-memory browser for runner and consent
// tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ui_regression/internal/browser"
)

// Element is what the fake DOM knows about one selector.
type Element struct {
	Count   int
	Visible bool
	Text    string
}

// Page is a scripted tab. Fields may be set before the page is used; use
// OnQuery to change them while a runner polls it.
type Page struct {
	mu sync.Mutex

	PageTitle  string
	Elements   map[string]Element
	TextCounts map[string]int // see Key
	Shot       []byte

	NavigateErr   error
	ClickErr      error
	ScreenshotErr error
	CloseErr      error

	// OnQuery runs before every Count/Visible/Title/Text call, with the page
	// locked: change fields directly.
	OnQuery func(p *Page)

	Navigated []string
	Clicks    []string
	Queries   int
	Closed    bool
}

func NewPage(title string) *Page {
	return &Page{
		PageTitle:  title,
		Elements:   map[string]Element{},
		TextCounts: map[string]int{},
		Shot:       []byte("png"),
	}
}

func (p *Page) query() {
	p.Queries++
	if p.OnQuery != nil {
		p.OnQuery(p)
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Navigated = append(p.Navigated, url)
	return p.NavigateErr
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query()
	return p.PageTitle, nil
}

func (p *Page) Count(ctx context.Context, selector, text string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query()
	if text != "" {
		return p.TextCounts[Key(selector, text)], nil
	}
	return p.Elements[selector].Count, nil
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query()
	el := p.Elements[selector]
	return el.Count > 0 && el.Visible, nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query()
	return p.Elements[selector].Text, nil
}

func (p *Page) Click(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ClickErr != nil {
		return p.ClickErr
	}
	key := selector
	if text != "" {
		key = Key(selector, text)
	}
	p.Clicks = append(p.Clicks, key)
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return p.Shot, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return p.CloseErr
}

// ClickedKeys returns a copy of the recorded clicks.
func (p *Page) ClickedKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Clicks...)
}

// Browser hands out pages built by NewPageFunc. n counts pages opened so far,
// starting at 1.
type Browser struct {
	mu          sync.Mutex
	NewPageFunc func(n int) (*Page, error)
	Pages       []*Page
	Closed      bool
}

// Static returns a browser whose every page is a fresh copy built by build.
func Static(build func() *Page) *Browser {
	return &Browser{NewPageFunc: func(int) (*Page, error) { return build(), nil }}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Closed {
		return nil, errors.New("browser closed")
	}
	p, err := b.NewPageFunc(len(b.Pages) + 1)
	if err != nil {
		return nil, err
	}
	b.Pages = append(b.Pages, p)
	return p, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// OpenedPages returns how many pages were requested.
func (b *Browser) OpenedPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Pages)
}

// Key formats a TextCounts key and a recorded click. The text is kept as
// given: the drivers match it with a plain substring test.
func Key(selector, text string) string {
	return fmt.Sprintf("%s|%s", selector, text)
}
