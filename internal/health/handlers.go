package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health  *Service
	checker *Checker
}

// NewHandlers creates health handlers. checker may be nil, which disables
// the test endpoints.
func NewHandlers(health *Service, checker *Checker) *Handlers {
	return &Handlers{health: health, checker: checker}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/test", h.TestAll)
	g.POST("/:category/test", h.TestCategory)
}

// GetAll returns all health items grouped by category.
// GET /api/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns counts per category.
// GET /api/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns the items of one category.
// GET /api/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category, ok := ParseCategory(c.Param("category"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(category))
}

// TestAll runs every check now.
// POST /api/health/test
func (h *Handlers) TestAll(c echo.Context) error {
	if h.checker == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "health checks not configured")
	}
	if err := h.checker.CheckAll(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// TestCategory runs the checks of one category now.
// POST /api/health/:category/test
func (h *Handlers) TestCategory(c echo.Context) error {
	category, ok := ParseCategory(c.Param("category"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	if h.checker == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "health checks not configured")
	}
	if err := h.checker.CheckCategory(c.Request().Context(), category); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(category))
}
