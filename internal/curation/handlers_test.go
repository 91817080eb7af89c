package curation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/admin"
)

func newEcho(t *testing.T) (*echo.Echo, *env) {
	t.Helper()
	e := newEnv(t)
	srv := echo.New()
	NewHandlers(e.svc).RegisterRoutes(srv.Group(""))
	return srv, e
}

func serve(srv *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Mutations(t *testing.T) {
	srv, _ := newEcho(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantOK     bool
		wantError  string
	}{
		{"toggle", admin.PathToggleStatus, `{"movie_id":"tt1","status_type":"featured","value":true}`, http.StatusOK, true, ""},
		{"toggle non-bool", admin.PathToggleStatus, `{"movie_id":"tt1","status_type":"featured","value":"yes"}`, http.StatusOK, false, "Parameter value must be boolean"},
		{"fields", admin.PathUpdateFields, `{"movie_id":"tt1","rt_score":"88","director":null}`, http.StatusOK, true, ""},
		{"fields bad score", admin.PathUpdateFields, `{"movie_id":"tt1","rt_score":101}`, http.StatusOK, false, "RT score must be between 0 and 100"},
		{"review", admin.PathUpdateReview, `{"movie_id":"tt2","review_text":"Fun","rating":3}`, http.StatusOK, true, ""},
		{"delete review", admin.PathDeleteReview, `{"movie_id":"tt2"}`, http.StatusOK, true, ""},
		{"regenerate", admin.PathRegenerate, ``, http.StatusOK, true, ""},
		{"garbage", admin.PathToggleStatus, `{not json`, http.StatusBadRequest, false, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp admin.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantOK, resp.Success, resp.Error)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			}
		})
	}
}

func TestHandlers_Page(t *testing.T) {
	srv, e := newEcho(t)
	resp := e.svc.ToggleStatus(t.Context(), admin.ToggleStatusRequest{MovieID: "tt2", StatusType: "hidden", Value: true})
	require.True(t, resp.Success)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"tt1", "tt2"}},
		{"hidden", "?filter=hidden", []string{"tt2"}},
		{"search", "?q=alp", []string{"tt1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, http.MethodGet, admin.PathAdminPage+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)

			doc, err := goquery.NewDocumentFromReader(rec.Body)
			require.NoError(t, err)
			page := admin.NewPage(doc)
			assert.Equal(t, tt.want, page.ShownIDs())
			assert.Equal(t, page.HeaderStats(), page.CountStats())
			assert.Equal(t, 1, page.HeaderStats().Hidden)
		})
	}

	rec := serve(srv, http.MethodGet, admin.PathAdminPage+"?filter=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
