// Package browser defines the small page surface the runner needs and
// opens the driver named in the config.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
)

// Browser owns one browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one tab. Methods query the current DOM once and do not wait;
// polling is the caller's job.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	// Count returns how many elements match selector and, when text is not
	// empty, contain text.
	Count(ctx context.Context, selector, text string) (int, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Text(ctx context.Context, selector string) (string, error)
	// Click clicks the first element matching selector (and text, when set).
	Click(ctx context.Context, selector, text string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Options are the launch settings shared by every driver.
type Options struct {
	Headless  bool
	Width     int
	Height    int
	UserAgent string
	Logf      func(string, ...interface{})
}

// Opener launches a driver.
type Opener func(ctx context.Context, opts Options) (Browser, error)

var drivers = map[string]Opener{}

// Register makes a driver available under name. Drivers call it from init.
func Register(name string, open Opener) {
	drivers[name] = open
}

// Open launches the driver called name.
func Open(ctx context.Context, name string, opts Options) (Browser, error) {
	open, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("browser driver %q not registered", name)
	}
	return open(ctx, opts)
}

// The scripts below take their arguments as JSON literals so selectors and
// text never need escaping by hand.

// CountScript counts elements matching selector that contain text.
func CountScript(selector, text string) string {
	return fmt.Sprintf(`(() => {
	const text = %s;
	return Array.from(document.querySelectorAll(%s))
		.filter(el => !text || (el.textContent || "").includes(text)).length;
})()`, quote(text), quote(selector))
}

// ClickScript clicks the first element matching selector that contains text
// and reports whether one was found.
func ClickScript(selector, text string) string {
	return fmt.Sprintf(`(() => {
	const text = %s;
	const el = Array.from(document.querySelectorAll(%s))
		.find(el => !text || (el.textContent || "").includes(text));
	if (!el) return false;
	el.scrollIntoView({block: "center"});
	el.click();
	return true;
})()`, quote(text), quote(selector))
}

// VisibleScript reports whether the first match is rendered and not hidden.
func VisibleScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.visibility === "hidden" || style.display === "none") return false;
	return el.getClientRects().length > 0;
})()`, quote(selector))
}

// TextScript returns the trimmed text of the first match, or "".
func TextScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	return el ? (el.textContent || "").trim() : "";
})()`, quote(selector))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
