package playlist

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_Create(t *testing.T) {
	e := echo.New()
	NewHandlers(newTestPlanner()).RegisterRoutes(e.Group(""))

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
		wantError   string
	}{
		{"dry run", `{"date_type":"last_x_days","days_back":7,"privacy":"public","dry_run":true}`, http.StatusOK, true, ""},
		{"logical failure", `{"date_type":"date_range","from_date":"2024-01-01","privacy":"public","dry_run":true}`, http.StatusOK, false, "Both from_date and to_date required for date range"},
		{"bad body", `{"date_type":`, http.StatusBadRequest, false, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, PathCreate, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var res Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantError, res.Error)
		})
	}
}
