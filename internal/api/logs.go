package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nrw/releasewall/internal/logger"
)

// maxLogLimit caps a single /api/logs response.
const maxLogLimit = 1000

// LogsProvider exposes buffered log entries and the active log file.
// *logger.Logger satisfies it.
type LogsProvider interface {
	QueryLogs(q logger.Query) []logger.LogEntry
	GetLogFilePath() string
}

// LogsHandlers serves recent log entries and the log file.
type LogsHandlers struct {
	provider LogsProvider
}

// NewLogsHandlers creates logs handlers over provider.
func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns buffered entries, optionally narrowed by the level,
// component and limit query parameters.
// GET /api/logs
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	q := logger.Query{
		Level:     c.QueryParam("level"),
		Component: c.QueryParam("component"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		q.Limit = min(n, maxLogLimit)
	}

	logs := h.provider.QueryLogs(q)
	if logs == nil {
		logs = []logger.LogEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the active log file as an attachment.
// GET /api/logs/download
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "logging to console only")
	}
	if _, err := os.Stat(logPath); errors.Is(err, fs.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}
	return c.Attachment(logPath, logger.FileName)
}
