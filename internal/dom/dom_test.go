package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<form>
<input id="score-tt1" value="87">
<textarea id="review-tt1">Great</textarea>
<select id="privacy"><option value="public">Public</option><option value="private" selected>Private</option></select>
<input type="checkbox" id="dry-run" checked>
<button id="save">Save</button>
</form>`

func parse(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)
	return doc
}

func TestValue(t *testing.T) {
	doc := parse(t)

	tests := []struct {
		id   string
		want string
	}{
		{"score-tt1", "87"},
		{"review-tt1", "Great"},
		{"privacy", "private"},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := Value(ByID(doc, tt.id)); got != tt.want {
			t.Errorf("Value(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSetValue(t *testing.T) {
	doc := parse(t)

	SetValue(ByID(doc, "score-tt1"), "90")
	SetValue(ByID(doc, "review-tt1"), "<b>bold</b>")
	SetValue(ByID(doc, "privacy"), "public")

	assert.Equal(t, "90", Value(ByID(doc, "score-tt1")))
	assert.Equal(t, "<b>bold</b>", Value(ByID(doc, "review-tt1")))
	assert.Equal(t, "public", Value(ByID(doc, "privacy")))
}

func TestChecked(t *testing.T) {
	doc := parse(t)
	box := ByID(doc, "dry-run")

	assert.True(t, Checked(box))
	SetChecked(box, false)
	assert.False(t, Checked(box))
}

func TestVisible(t *testing.T) {
	doc := parse(t)
	btn := ByID(doc, "save")

	assert.True(t, Visible(btn))
	SetVisible(btn, false)
	assert.False(t, Visible(btn))
	SetVisible(btn, true)
	assert.True(t, Visible(btn))
}

func TestControl_Lifecycle(t *testing.T) {
	doc := parse(t)
	c := NewControl(ByID(doc, "save"))
	require.True(t, c.Exists())

	c.Begin("⏳ Saving...")
	assert.Equal(t, "⏳ Saving...", c.Label())
	assert.True(t, Disabled(ByID(doc, "save")))

	c.Show("✅ Saved!")
	assert.Equal(t, "✅ Saved!", c.Label())
	assert.True(t, Disabled(ByID(doc, "save")))

	c.Restore()
	assert.Equal(t, "Save", c.Label())
	assert.False(t, Disabled(ByID(doc, "save")))
}

func TestControl_NestedBeginKeepsFirstLabel(t *testing.T) {
	doc := parse(t)
	c := NewControl(ByID(doc, "save"))

	c.Begin("one")
	c.Begin("two")
	c.Restore()
	assert.Equal(t, "Save", c.Label())
}

func TestFuncAdapters(t *testing.T) {
	var got string
	var a Alerter = AlertFunc(func(msg string) { got = msg })
	a.Alert("hi")
	assert.Equal(t, "hi", got)

	var c Confirmer = ConfirmFunc(func(string) bool { return true })
	assert.True(t, c.Confirm("sure?"))
}
