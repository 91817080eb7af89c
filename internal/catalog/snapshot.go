package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// ErrInvalidSnapshot is returned when a snapshot is neither an array nor an
// object with a movies field.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the published data file.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Count       int       `json:"count"`
	Movies      []Record  `json:"movies"`
}

// LoadSnapshot decodes the raw records of a snapshot. Both a bare array and
// {"movies": [...]} are accepted; a movies object keyed by id is flattened
// in key order.
func LoadSnapshot(r io.Reader) ([]Record, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return RecordsFrom(doc)
}

// RecordsFrom extracts records from an already decoded document.
func RecordsFrom(doc any) ([]Record, error) {
	switch t := doc.(type) {
	case []any:
		return recordList(t), nil
	case map[string]any:
		movies, ok := t["movies"]
		if !ok {
			return nil, fmt.Errorf("%w: missing movies field", ErrInvalidSnapshot)
		}
		switch m := movies.(type) {
		case []any:
			return recordList(m), nil
		case map[string]any:
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := make([]Record, 0, len(keys))
			for _, k := range keys {
				obj, ok := asObject(m[k])
				if !ok {
					continue
				}
				rec := Record(obj)
				if _, has := rec.Lookup("id"); !has {
					rec["id"] = k
				}
				out = append(out, rec)
			}
			return out, nil
		}
		return nil, fmt.Errorf("%w: movies is %T", ErrInvalidSnapshot, movies)
	}
	return nil, fmt.Errorf("%w: top level is %T", ErrInvalidSnapshot, doc)
}

func recordList(items []any) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := asObject(item); ok {
			out = append(out, Record(obj))
		}
	}
	return out
}

// WriteSnapshot encodes records with the generated_at/count header.
func WriteSnapshot(w io.Writer, records []Record, now time.Time) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Snapshot{GeneratedAt: now.UTC(), Count: len(records), Movies: records})
}
