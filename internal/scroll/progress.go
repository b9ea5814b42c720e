// Package scroll keeps the "go up" button and the reading progress bar in
// step with how far the reader has scrolled.
package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"blogchat/internal/ui"
)

const (
	SelGoUp        = "#go-up"
	SelProgressBar = "#reading-progress-bottom"
	// SelArticle marks an article page.
	SelArticle = ".post"
)

// LabelThreshold is the last percentage shown on the go-up button; past it
// the button falls back to its icon.
const LabelThreshold = 95

// Percent returns the vertical scroll progress in [0, 100].
//
// The document height is the largest of the reported height sources, so the
// result holds across box models. A page with nothing to scroll counts as
// fully read.
func Percent(v ui.Viewport) int {
	scrollTop := v.ScrollTop
	if scrollTop == 0 {
		scrollTop = v.PageYOffset
	}
	scrollHeight := max(
		v.BodyScrollHeight, v.DocScrollHeight,
		v.BodyOffsetHeight, v.DocOffsetHeight,
		v.BodyClientHeight, v.DocClientHeight,
	)
	scrollable := scrollHeight - v.DocClientHeight
	if scrollable <= 0 {
		return 100
	}
	p := math.Round(scrollTop / scrollable * 100)
	if math.IsNaN(p) {
		return 0
	}
	return int(math.Min(math.Max(p, 0), 100))
}

// Update recomputes the percentage from doc's viewport and applies it.
//
// On article pages up to LabelThreshold the go-up button shows the number
// instead of its icon; otherwise the icon is shown. The progress bar, when
// the page has one, always tracks the percentage.
func Update(doc ui.Document) (int, error) {
	percent := Percent(doc.Viewport())

	icon, label, err := goUpParts(doc)
	if err != nil {
		return percent, err
	}

	if doc.Query(SelArticle) != nil && percent <= LabelThreshold {
		icon.SetStyle("display", "none")
		label.SetStyle("display", "block")
		label.SetInnerHTML(fmt.Sprintf("%d<span>%%</span>", percent))
	} else {
		label.SetStyle("display", "none")
		icon.SetStyle("display", "block")
	}

	if bar := doc.Query(SelProgressBar); bar != nil {
		bar.SetStyle("width", fmt.Sprintf("%d%%", percent))
	}
	return percent, nil
}

// Bind runs Update on every scroll event. It fails up front if the go-up
// button or either of its children is missing.
func Bind(doc ui.Document, logger *slog.Logger) error {
	if _, _, err := goUpParts(doc); err != nil {
		return fmt.Errorf("bind scroll progress: %w", err)
	}
	doc.OnScroll(func(ctx context.Context) {
		if _, err := Update(doc); err != nil {
			logger.WarnContext(ctx, "scroll progress update failed", "error", err)
		}
	})
	return nil
}

func goUpParts(doc ui.Document) (icon, label ui.Element, err error) {
	goUp := doc.Query(SelGoUp)
	if goUp == nil {
		return nil, nil, fmt.Errorf("%w: %s", ui.ErrMissingElement, SelGoUp)
	}
	icon, label = goUp.Child(0), goUp.Child(1)
	if icon == nil || label == nil {
		return nil, nil, fmt.Errorf("%w: %s children", ui.ErrMissingElement, SelGoUp)
	}
	return icon, label, nil
}
