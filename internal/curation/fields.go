package curation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nrw/releasewall/internal/admin"
	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/store"
)

// MaxSynopsisLength is the longest synopsis accepted, in characters.
const MaxSynopsisLength = 5000

var integerPattern = regexp.MustCompile(`^[-+]?\d+$`)

// fieldChange is one validated field edit.
type fieldChange struct {
	label string
	path  string
	value any
}

// fieldPlan is the validated form of an UpdateFieldsRequest, in the order
// edits are reported.
type fieldPlan []fieldChange

func (p fieldPlan) overrides() store.Overrides {
	o := make(store.Overrides, len(p))
	for _, c := range p {
		o[c.path] = c.value
	}
	return o
}

func (p fieldPlan) labels() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.label
	}
	return out
}

func hasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// planFields validates req and translates it into override paths. The
// returned message is the in-band error for the first invalid field.
func planFields(req admin.UpdateFieldsRequest) (fieldPlan, string) {
	var plan fieldPlan

	if req.RTScore.Set && req.RTScore.Valid {
		score, msg := parseScore(req.RTScore.Value)
		if msg != "" {
			return nil, msg
		}
		plan = append(plan, fieldChange{"RT Score", "rt_score", score})
	}

	links := []struct {
		in    admin.Nullable[string]
		name  string
		label string
		path  string
	}{
		{req.RTLink, "RT link", "RT Link", "links.rt"},
		{req.TrailerLink, "Trailer link", "Trailer", "links.trailer"},
	}
	for _, l := range links {
		if !l.in.Set {
			continue
		}
		v := strings.TrimSpace(l.in.Value)
		if v == "" {
			plan = append(plan, fieldChange{l.label + " (cleared)", l.path, nil})
			continue
		}
		if !hasHTTPScheme(v) {
			return nil, l.name + " must be a valid URL starting with http:// or https://"
		}
		plan = append(plan, fieldChange{l.label, l.path, v})
	}

	texts := []struct {
		in    admin.Nullable[string]
		label string
		path  string
	}{
		{req.Director, "Director", "crew.director"},
		{req.Country, "Country", "country"},
	}
	for _, f := range texts {
		if !f.in.Set {
			continue
		}
		if v := strings.TrimSpace(f.in.Value); v != "" {
			plan = append(plan, fieldChange{f.label, f.path, v})
		} else {
			plan = append(plan, fieldChange{f.label + " (cleared)", f.path, nil})
		}
	}

	if req.PosterURL.Set {
		v := strings.TrimSpace(req.PosterURL.Value)
		switch {
		case v == "":
			plan = append(plan, fieldChange{"Poster (cleared)", "poster", nil})
		case !hasHTTPScheme(v):
			return nil, "Poster URL must be a valid URL starting with http:// or https://"
		default:
			plan = append(plan, fieldChange{"Poster", "poster", v})
		}
	}

	if req.DigitalDate.Set {
		v := strings.TrimSpace(req.DigitalDate.Value)
		if v == "" {
			plan = append(plan, fieldChange{"Digital Date (cleared)", "digital_date", nil})
		} else {
			if _, err := time.Parse(catalog.DateLayout, v); err != nil {
				return nil, "Digital date must be in ISO format YYYY-MM-DD (e.g., 2025-10-20)"
			}
			plan = append(plan, fieldChange{"Digital Date", "digital_date", v})
		}
	}

	if req.Synopsis.Set {
		v := strings.TrimSpace(req.Synopsis.Value)
		switch {
		case v == "":
			plan = append(plan, fieldChange{"Synopsis (cleared)", "synopsis", nil})
		case utf8.RuneCountInString(v) > MaxSynopsisLength:
			return nil, fmt.Sprintf("Synopsis is too long (maximum %d characters)", MaxSynopsisLength)
		default:
			plan = append(plan, fieldChange{"Synopsis", "synopsis", v})
		}
	}

	if req.WatchLinks.Set {
		if !req.WatchLinks.Valid || len(req.WatchLinks.Value) == 0 {
			plan = append(plan, fieldChange{"Watch Links", "watch_links", nil})
		} else {
			bundle, msg := planWatchLinks(req.WatchLinks.Value)
			if msg != "" {
				return nil, msg
			}
			plan = append(plan, fieldChange{"Watch Links", "watch_links", bundle})
		}
	}

	return plan, ""
}

func parseScore(v any) (int, string) {
	const notInteger = "RT score must be an integer between 0 and 100"
	var n int
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, notInteger
		}
		n = int(t)
	case string:
		s := strings.TrimSpace(t)
		if !integerPattern.MatchString(s) {
			return 0, notInteger
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, notInteger
		}
		n = parsed
	default:
		return 0, notInteger
	}
	if n < 0 || n > 100 {
		return 0, "RT score must be between 0 and 100"
	}
	return n, ""
}

// planWatchLinks validates the known categories. Unknown categories are
// dropped; a blank link is stored as null.
func planWatchLinks(in map[string]admin.WatchLink) (map[string]any, string) {
	out := make(map[string]any)
	for _, category := range []string{catalog.WatchStreaming, catalog.WatchRent, catalog.WatchBuy} {
		wl, ok := in[category]
		if !ok {
			continue
		}
		if !wl.Service.Set || !wl.Link.Set {
			return nil, fmt.Sprintf(`Watch links %s must have "service" and "link" fields`, category)
		}
		service := strings.TrimSpace(wl.Service.Value)
		if service == "" {
			return nil, fmt.Sprintf("Watch links %s service cannot be empty", category)
		}
		entry := map[string]any{"service": service, "link": nil}
		if link := strings.TrimSpace(wl.Link.Value); link != "" {
			if !hasHTTPScheme(link) {
				return nil, fmt.Sprintf("Watch links %s link must be a valid URL starting with http:// or https://", category)
			}
			entry["link"] = link
		}
		out[category] = entry
	}
	return out, ""
}
