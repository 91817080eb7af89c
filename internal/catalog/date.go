package catalog

import (
	"sort"
	"time"
)

// DateLayout is the canonical availability date format.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or any value starting with one (RFC3339).
func ParseDate(s string) (time.Time, bool) {
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Visible drops movies dated after today. Movies with an unknown or
// malformed date are kept.
func Visible(movies []Movie, today time.Time) []Movie {
	cutoff := today.Format(DateLayout)
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		d, ok := m.Date()
		if ok && d.Format(DateLayout) > cutoff {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SortByDateDesc orders movies newest first, with unknown dates last.
// Movies sharing an AvailabilityDate value end up adjacent, groups that tie
// are ordered by where their value first appears in the input, and order
// within a group is kept.
func SortByDateDesc(movies []Movie) {
	firstSeen := make(map[string]int, len(movies))
	for i := range movies {
		if _, ok := firstSeen[movies[i].AvailabilityDate]; !ok {
			firstSeen[movies[i].AvailabilityDate] = i
		}
	}

	sort.SliceStable(movies, func(i, j int) bool {
		di, iok := movies[i].Date()
		dj, jok := movies[j].Date()
		switch {
		case iok && jok && !di.Equal(dj):
			return di.After(dj)
		case iok != jok:
			return iok
		default:
			return firstSeen[movies[i].AvailabilityDate] < firstSeen[movies[j].AvailabilityDate]
		}
	})
}
