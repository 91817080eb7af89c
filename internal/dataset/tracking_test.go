package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTracking(t *testing.T) {
	tests := []struct {
		name  string
		ext   string
		body  string
		want  int
		isErr bool
	}{
		{"json array", ".json", `[{"title":"A"},{"title":"B"}]`, 2, false},
		{"json keyed", ".json", `{"movies":{"x":{"title":"A"}}}`, 1, false},
		{"yaml", ".yaml", "movies:\n  - title: A\n    digital_date: 2024-01-02\n  - title: B\n", 2, false},
		{"yml keyed", ".YML", "movies:\n  tt9:\n    title: A\n", 1, false},
		{"bad json", ".json", `{`, 0, true},
		{"no movies", ".json", `{"items":[]}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeTracking([]byte(tt.body), tt.ext)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestDecodeTracking_YAMLKeyedID(t *testing.T) {
	records, err := DecodeTracking([]byte("movies:\n  tt9:\n    title: A\n"), ".yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tt9", records[0]["id"])
}

func TestLoadTracking_MissingFile(t *testing.T) {
	_, err := LoadTracking("/nonexistent/tracking.json")
	assert.Error(t, err)
}
