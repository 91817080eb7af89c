package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/nrw/releasewall/internal/logger"
)

type fakeLogs struct {
	last logger.Query
	path string
}

func (f *fakeLogs) QueryLogs(q logger.Query) []logger.LogEntry {
	f.last = q
	return nil
}

func (f *fakeLogs) GetLogFilePath() string { return f.path }

func TestLogsHandlers(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantQuery  logger.Query
	}{
		{"defaults", "/logs", http.StatusOK, logger.Query{}},
		{"filters", "/logs?level=warn&component=curation&limit=20", http.StatusOK,
			logger.Query{Level: "warn", Component: "curation", Limit: 20}},
		{"limit capped", "/logs?limit=5000", http.StatusOK, logger.Query{Limit: maxLogLimit}},
		{"bad limit", "/logs?limit=-1", http.StatusBadRequest, logger.Query{}},
		{"no log file", "/logs/download", http.StatusNotFound, logger.Query{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeLogs{}
			e := echo.New()
			NewLogsHandlers(provider).RegisterRoutes(e.Group("/logs"))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantQuery, provider.last)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `[]`, rec.Body.String())
			}
		})
	}
}
