package ranking

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(svc *Service, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
	})
	NewHandler(svc).RegisterRoutes(api, api.Group("/admin"))
	return r
}

func TestHandlerCreateGroup(t *testing.T) {
	f := setup(t)
	r := newTestRouter(f.svc, 1, "ADMIN")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/groups", strings.NewReader(`{"name":"Куратор","rank":3}`)))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/groups", strings.NewReader(`{"name":"Куратор","rank":5}`)))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "GROUP_EXISTS")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/groups", strings.NewReader(`{"name":"X"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerGetUserGroupsAccess(t *testing.T) {
	f := setup(t)
	memberID := f.member(t)
	path := "/api/v1/users/" + strconv.FormatInt(memberID, 10) + "/groups"

	w := httptest.NewRecorder()
	newTestRouter(f.svc, memberID, "STUDENT").ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newTestRouter(f.svc, memberID+1, "STUDENT").ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newTestRouter(f.svc, 1, "ADMIN").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/999/groups", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
}
