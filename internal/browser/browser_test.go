package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptsQuoteArguments(t *testing.T) {
	sel := `a[href="/recherche"]`
	script := CountScript(sel, `l'"écoute"`)
	assert.Contains(t, script, `document.querySelectorAll("a[href=\"/recherche\"]")`)
	assert.Contains(t, script, `const text = "l'\"écoute\"";`)

	assert.Contains(t, ClickScript("span", "Tout accepter"), `const text = "Tout accepter";`)
	assert.Contains(t, VisibleScript("nav"), `document.querySelector("nav")`)
	assert.Contains(t, TextScript("h1"), `document.querySelector("h1")`)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "selenium", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"selenium"`)
}

type stubBrowser struct{ Browser }

func TestRegister(t *testing.T) {
	var got Options
	Register("stub", func(ctx context.Context, opts Options) (Browser, error) {
		got = opts
		return stubBrowser{}, nil
	})
	t.Cleanup(func() { delete(drivers, "stub") })

	b, err := Open(context.Background(), "stub", Options{Headless: true, Width: 800})
	require.NoError(t, err)
	assert.IsType(t, stubBrowser{}, b)
	assert.True(t, got.Headless)
	assert.Equal(t, 800, got.Width)
}
