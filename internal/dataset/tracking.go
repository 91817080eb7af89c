// Package dataset rebuilds the published snapshot from the tracking file
// and the admin overrides.
package dataset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/nrw/releasewall/internal/catalog"
)

// LoadTracking reads the tracking file. JSON and YAML (.yaml, .yml) are
// accepted, in any shape catalog.RecordsFrom understands.
func LoadTracking(path string) ([]catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking file: %w", err)
	}
	return DecodeTracking(data, filepath.Ext(path))
}

// DecodeTracking decodes tracking data. ext selects YAML for ".yaml" and
// ".yml"; anything else is JSON.
func DecodeTracking(data []byte, ext string) ([]catalog.Record, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode tracking yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode tracking json: %w", err)
		}
	}
	records, err := catalog.RecordsFrom(doc)
	if err != nil {
		return nil, fmt.Errorf("tracking file: %w", err)
	}
	return records, nil
}
