package browsertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextKeysMatchCountAndClick(t *testing.T) {
	ctx := context.Background()
	p := NewPage("France Culture")
	p.TextCounts[Key("span", " Tout accepter ")] = 1

	n, err := p.Count(ctx, "span", " Tout accepter ")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Count(ctx, "span", "Tout accepter")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, p.Click(ctx, "span", " Tout accepter "))
	require.NoError(t, p.Click(ctx, "#didomi-notice-agree-button", ""))
	assert.Equal(t, []string{Key("span", " Tout accepter "), "#didomi-notice-agree-button"}, p.ClickedKeys())
}
