package browsertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_regression/internal/browser"
)

// EnvChrome must be set to run tests that launch a real Chrome.
const EnvChrome = "UI_REGRESSION_CHROME"

// RequireChrome skips t unless real-browser tests were asked for.
func RequireChrome(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvChrome) == "" {
		t.Skipf("set %s=1 to run tests against a real Chrome", EnvChrome)
	}
}

const fixtureHTML = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>France Culture : Écouter la radio</title></head>
<body>
<div id="consent"><span onclick="document.getElementById('consent').remove()">Tout accepter</span></div>
<nav role="navigation" aria-label="menu principal"><ul>
<li>Podcasts</li><li>Émissions</li><li>Fictions</li><li>Grille</li><li>Savoirs</li>
</ul></nav>
<a href="/recherche">Rechercher</a>
<a href="/cache" style="display:none">caché</a>
</body></html>`

// Conformance drives b against a local fixture page and checks every Page
// method behaves the same whatever the driver.
func Conformance(t *testing.T, b browser.Browser) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(fixtureHTML))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, srv.URL))

	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "France Culture : Écouter la radio", title)

	n, err := page.Count(ctx, `nav[role="navigation"][aria-label="menu principal"] ul li`, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = page.Count(ctx, "span", "Tout accepter")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = page.Count(ctx, "#absent", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	visible, err := page.Visible(ctx, `a[href="/recherche"]`)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = page.Visible(ctx, `a[href="/cache"]`)
	require.NoError(t, err)
	assert.False(t, visible)

	text, err := page.Text(ctx, `a[href="/recherche"]`)
	require.NoError(t, err)
	assert.Equal(t, "Rechercher", text)

	require.NoError(t, page.Click(ctx, "span", "Tout accepter"))
	n, err = page.Count(ctx, "#consent", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, page.Click(ctx, `a[href="/recherche"]`, ""))

	shot, err := page.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, shot)
}
