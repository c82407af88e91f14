// Package consent dismisses cookie-consent overlays.
package consent

import (
	"context"
	"fmt"

	"ui_regression/internal/browser"
	"ui_regression/internal/model"
)

const (
	MsgAccepted = "Cookies acceptés"
	MsgNone     = "Pas de bannière de cookies détectée"
)

// Defaults are the banners seen on the site, most specific first.
var Defaults = []model.ConsentBanner{
	{Name: "Tout accepter", Selector: "span", Text: "Tout accepter"},
	{Name: "didomi", Selector: "#didomi-notice-agree-button"},
	{Name: "onetrust", Selector: "#onetrust-accept-btn-handler"},
	{Name: "generic", Selector: `button[aria-label*="accepter" i]`},
}

// Dismiss clicks the first banner present and logs which one it was. It
// returns the matched banner name, or "" when none was present.
func Dismiss(ctx context.Context, page browser.Page, banners []model.ConsentBanner, log func(string)) (string, error) {
	for _, b := range banners {
		n, err := page.Count(ctx, b.Selector, b.Text)
		if err != nil {
			return "", fmt.Errorf("look for consent banner %s: %w", b.Name, err)
		}
		if n == 0 {
			continue
		}
		if err := page.Click(ctx, b.Selector, b.Text); err != nil {
			return "", fmt.Errorf("dismiss consent banner %s: %w", b.Name, err)
		}
		log(fmt.Sprintf("%s (%s)", MsgAccepted, b.Name))
		return b.Name, nil
	}
	log(MsgNone)
	return "", nil
}
