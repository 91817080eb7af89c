package wall

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ErrFlipAttached is returned when a container already has a flip controller.
var ErrFlipAttached = errors.New("flip controller already attached")

const (
	flipMarker   = "data-flip"
	flippedClass = "flipped"
)

// FlipController toggles cards between poster and details. It is attached to
// the wall container, not to individual cards, and resolves the card on each
// click, so it keeps working after RenderInto replaces the wall content.
type FlipController struct {
	doc      *goquery.Document
	selector string
}

// AttachFlip attaches a controller to the container matched by selector.
// A container accepts a single controller.
func AttachFlip(doc *goquery.Document, selector string) (*FlipController, error) {
	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContainer, selector)
	}
	if _, ok := container.Attr(flipMarker); ok {
		return nil, ErrFlipAttached
	}
	container.SetAttr(flipMarker, "on")
	return &FlipController{doc: doc, selector: selector}, nil
}

// Click handles a click on target. It reports whether a card was toggled.
// Clicks on links, inside links, or inside the info line are ignored.
func (f *FlipController) Click(target *goquery.Selection) bool {
	if target == nil || target.Length() == 0 {
		return false
	}
	if target.Closest(f.selector).Length() == 0 {
		return false
	}
	if target.Closest("a").Length() > 0 {
		return false
	}
	if target.Closest(".movie-info").Length() > 0 {
		return false
	}
	card := target.Closest(".movie-card")
	if card.Length() == 0 {
		return false
	}
	card.ToggleClass(flippedClass)
	return true
}

// Flipped reports whether the card containing sel shows its back face.
func Flipped(sel *goquery.Selection) bool {
	return sel.Closest(".movie-card").HasClass(flippedClass)
}
