// Package dom holds the small set of document operations the admin and
// playlist clients perform on a parsed page.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const originalLabelAttr = "data-original-label"

// Alerter shows a blocking message to the operator.
type Alerter interface {
	Alert(msg string)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(msg string) bool
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(msg string)

// Alert calls f(msg).
func (f AlertFunc) Alert(msg string) { f(msg) }

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(msg string) bool

// Confirm calls f(msg).
func (f ConfirmFunc) Confirm(msg string) bool { return f(msg) }

// ByID finds an element by id. Ids are matched literally, so movie ids with
// characters that are special in selectors still work.
func ByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find(fmt.Sprintf("[id=%q]", id)).First()
}

// Value reads the current value of a form control.
func Value(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "textarea":
		return sel.Text()
	case "select":
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return opt.Text()
	}
	return sel.AttrOr("value", "")
}

// SetValue writes the value of a form control.
func SetValue(sel *goquery.Selection, value string) {
	switch goquery.NodeName(sel) {
	case "textarea":
		sel.SetText(value)
	case "select":
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			if opt.AttrOr("value", opt.Text()) == value {
				opt.SetAttr("selected", "selected")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	default:
		sel.SetAttr("value", value)
	}
}

// Checked reports whether a checkbox is checked.
func Checked(sel *goquery.Selection) bool {
	_, ok := sel.Attr("checked")
	return ok
}

// SetChecked checks or unchecks a checkbox.
func SetChecked(sel *goquery.Selection, checked bool) {
	if checked {
		sel.SetAttr("checked", "checked")
		return
	}
	sel.RemoveAttr("checked")
}

// Disabled reports whether a control is disabled.
func Disabled(sel *goquery.Selection) bool {
	_, ok := sel.Attr("disabled")
	return ok
}

// SetDisabled toggles the disabled attribute.
func SetDisabled(sel *goquery.Selection, disabled bool) {
	if disabled {
		sel.SetAttr("disabled", "disabled")
		return
	}
	sel.RemoveAttr("disabled")
}

// Visible reports whether an element is not hidden by SetVisible.
func Visible(sel *goquery.Selection) bool {
	return !strings.Contains(strings.ReplaceAll(sel.AttrOr("style", ""), " ", ""), "display:none")
}

// SetVisible shows or hides an element through its inline display style.
func SetVisible(sel *goquery.Selection, visible bool) {
	if visible {
		sel.RemoveAttr("style")
		return
	}
	sel.SetAttr("style", "display: none")
}

// Control is a button that goes busy while an operation runs.
type Control struct {
	sel *goquery.Selection
}

// NewControl wraps a button element.
func NewControl(sel *goquery.Selection) Control {
	return Control{sel: sel}
}

// Exists reports whether the control is present in the document.
func (c Control) Exists() bool {
	return c.sel != nil && c.sel.Length() > 0
}

// Label returns the current label.
func (c Control) Label() string {
	return strings.TrimSpace(c.sel.Text())
}

// Begin disables the control and shows a busy label, remembering the
// label it had before.
func (c Control) Begin(busy string) {
	if _, ok := c.sel.Attr(originalLabelAttr); !ok {
		c.sel.SetAttr(originalLabelAttr, c.Label())
	}
	SetDisabled(c.sel, true)
	c.sel.SetText(busy)
}

// Show replaces the label while keeping the control disabled.
func (c Control) Show(label string) {
	c.sel.SetText(label)
}

// Restore brings back the remembered label and re-enables the control.
func (c Control) Restore() {
	if original, ok := c.sel.Attr(originalLabelAttr); ok {
		c.sel.SetText(original)
		c.sel.RemoveAttr(originalLabelAttr)
	}
	SetDisabled(c.sel, false)
}
