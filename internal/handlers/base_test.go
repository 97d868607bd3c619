package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"showtalk/internal/services"
	"showtalk/internal/thread"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: content", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("parent: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrDeleted, http.StatusGone},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.GET("/gone", func(c *gin.Context) { fail(c, services.ErrDeleted) })
	r.GET("/boom", func(c *gin.Context) { fail(c, errors.New("pq: password authentication failed")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.JSONEq(t, `{"error":"comment deleted"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestListOptionsFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  services.ListOptions
	}{
		{"", services.DefaultListOptions()},
		{"sort=top&limit=50&offset=20&tree=false&maxDepth=2",
			services.ListOptions{Sort: thread.SortTop, Limit: 50, Offset: 20, Tree: false, MaxDepth: 2}},
		{"sort=weird&limit=abc&tree=maybe",
			services.ListOptions{Sort: thread.SortNew, Limit: thread.DefaultLimit, Tree: true, MaxDepth: thread.DefaultMaxDepth}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, listOptions(c), tt.query)
	}
}

func TestParamAndQueryIDs(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, "%d", id)
	})
	r.GET("/q", func(c *gin.Context) {
		id, ok := queryID(c, "commentId")
		if !ok {
			return
		}
		c.String(http.StatusOK, "%d", id)
	})

	for path, want := range map[string]int{
		"/x/12":          http.StatusOK,
		"/x/0":           http.StatusBadRequest,
		"/x/abc":         http.StatusBadRequest,
		"/q?commentId=5": http.StatusOK,
		"/q":             http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
