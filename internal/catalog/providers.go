package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Provider bucket keys, in merge order.
var providerBuckets = []string{"stream", "streaming", "flatrate", "rent", "buy"}

// Providers extracts the provider names of a raw record from every supported
// shape and merges them case-insensitively into one spelling per provider.
func Providers(raw Record) []string {
	set := newProviderSet()

	if v, ok := raw.Lookup("providers"); ok {
		switch t := v.(type) {
		case []any, []string:
			set.addAll(asStrings(t))
		default:
			if buckets, ok := asObject(v); ok {
				for _, key := range providerBuckets {
					if list, ok := buckets[key]; ok {
						set.addAll(asStrings(list))
					}
				}
			}
		}
	}

	w := watchOptions(raw)
	for _, category := range []string{WatchStreaming, WatchRent, WatchBuy} {
		if opt := w.Get(category); opt != nil {
			set.add(opt.Service)
		}
	}

	return set.names()
}

type providerSet struct {
	fold   cases.Caser
	title  cases.Caser
	order  []string
	chosen map[string]string
}

func newProviderSet() *providerSet {
	return &providerSet{
		fold:   cases.Fold(),
		title:  cases.Title(language.Und),
		chosen: make(map[string]string),
	}
}

// casingRank orders the spellings of one provider: mixed case first, then
// all caps, then all lowercase.
func casingRank(name string) int {
	switch {
	case strings.ToLower(name) == name:
		return 2
	case strings.ToUpper(name) == name:
		return 1
	default:
		return 0
	}
}

func (s *providerSet) add(name string) {
	if name == "" {
		return
	}
	key := s.fold.String(name)
	current, seen := s.chosen[key]
	if !seen {
		s.order = append(s.order, key)
		s.chosen[key] = name
		return
	}
	rc, rn := casingRank(current), casingRank(name)
	if rn < rc || (rn == rc && name < current) {
		s.chosen[key] = name
	}
}

func (s *providerSet) addAll(names []string) {
	for _, n := range names {
		s.add(n)
	}
}

// names returns one spelling per provider in first-seen order. The spelling
// does not depend on the order casings were seen in; a provider only ever
// seen in lowercase is title-cased.
func (s *providerSet) names() []string {
	out := make([]string, 0, len(s.order))
	for _, key := range s.order {
		name := s.chosen[key]
		if casingRank(name) == 2 {
			name = s.title.String(name)
		}
		out = append(out, name)
	}
	return out
}
