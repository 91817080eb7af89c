package curation

import (
	"bytes"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/nrw/releasewall/internal/admin"
)

// Handlers serves the admin page and the mutation endpoints.
type Handlers struct {
	service *Service
}

// NewHandlers creates curation handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the admin routes. mutations wraps the POST
// endpoints, typically with a rate limiter.
func (h *Handlers) RegisterRoutes(g *echo.Group, mutations ...echo.MiddlewareFunc) {
	g.GET(admin.PathAdminPage, h.Page)
	g.POST(admin.PathToggleStatus, h.ToggleStatus, mutations...)
	g.POST(admin.PathUpdateFields, h.UpdateFields, mutations...)
	g.POST(admin.PathUpdateReview, h.UpdateReview, mutations...)
	g.POST(admin.PathDeleteReview, h.DeleteReview, mutations...)
	g.POST(admin.PathRegenerate, h.Regenerate, mutations...)
}

func decode(c echo.Context, v any) error {
	return json.NewDecoder(c.Request().Body).Decode(v)
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, admin.Response{Error: "Invalid request body"})
}

// ToggleStatus sets a hidden or featured flag.
// POST /toggle-status
func (h *Handlers) ToggleStatus(c echo.Context) error {
	var req admin.ToggleStatusRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c)
	}
	return c.JSON(http.StatusOK, h.service.ToggleStatus(c.Request().Context(), req))
}

// UpdateFields edits movie metadata.
// POST /update-movie-fields
func (h *Handlers) UpdateFields(c echo.Context) error {
	var req admin.UpdateFieldsRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c)
	}
	return c.JSON(http.StatusOK, h.service.UpdateFields(c.Request().Context(), req))
}

// UpdateReview saves a review.
// POST /update-review
func (h *Handlers) UpdateReview(c echo.Context) error {
	var req admin.ReviewRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c)
	}
	return c.JSON(http.StatusOK, h.service.SaveReview(c.Request().Context(), req))
}

// DeleteReview removes a review.
// POST /delete-review
func (h *Handlers) DeleteReview(c echo.Context) error {
	var req admin.DeleteReviewRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c)
	}
	return c.JSON(http.StatusOK, h.service.DeleteReview(c.Request().Context(), req))
}

// Regenerate rebuilds the snapshot.
// POST /regenerate
func (h *Handlers) Regenerate(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Regenerate(c.Request().Context()))
}

// Page renders the admin page. The optional filter query parameter
// pre-applies a filter; q pre-applies a title search instead.
// GET /admin
func (h *Handlers) Page(c echo.Context) error {
	filter := admin.FilterAll
	if raw := c.QueryParam("filter"); raw != "" {
		f, err := admin.ParseFilter(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter = f
	}

	board, err := h.service.Board(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var buf bytes.Buffer
	if err := admin.RenderPage(&buf, board, h.service.PageOptions()); err != nil {
		return err
	}

	q := c.QueryParam("q")
	if filter == admin.FilterAll && q == "" {
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return err
	}
	page := admin.NewPage(doc)
	if q != "" {
		page.Search(q)
	} else {
		page.Filter(filter)
	}
	html, err := doc.Html()
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, html)
}
