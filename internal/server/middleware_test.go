package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brightfold/portal/internal/actor"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	s := &Server{engine: engine}
	api := engine.Group("/api", s.ActorRequired())
	api.GET("/probe", func(c *gin.Context) {
		act, _ := actor.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"actor_id": act.ID, "role": string(act.Role)})
	})
	api.GET("/staff-only", s.StaffRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/admin-only", s.AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func getWithHeaders(engine *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestActorRequiredRejectsMissingIdentity(t *testing.T) {
	engine := newGuardedEngine()

	w := getWithHeaders(engine, "/api/probe", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = getWithHeaders(engine, "/api/probe", map[string]string{
		"X-Actor-Id":   "user-1",
		"X-Actor-Role": "superuser",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorRequiredResolvesStaff(t *testing.T) {
	engine := newGuardedEngine()

	w := getWithHeaders(engine, "/api/probe", map[string]string{
		"X-Actor-Id":   "user-1",
		"X-Actor-Role": "accountant",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"accountant"`)
}

func TestClientActorsNeedClientID(t *testing.T) {
	engine := newGuardedEngine()

	w := getWithHeaders(engine, "/api/probe", map[string]string{
		"X-Actor-Id":   "user-2",
		"X-Actor-Role": "client_admin",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = getWithHeaders(engine, "/api/probe", map[string]string{
		"X-Actor-Id":        "user-2",
		"X-Actor-Role":      "client_admin",
		"X-Actor-Client-Id": "1234567890",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaffRequiredBlocksClientRoles(t *testing.T) {
	engine := newGuardedEngine()

	w := getWithHeaders(engine, "/api/staff-only", map[string]string{
		"X-Actor-Id":        "user-2",
		"X-Actor-Role":      "client_collaborator",
		"X-Actor-Client-Id": "1234567890",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = getWithHeaders(engine, "/api/staff-only", map[string]string{
		"X-Actor-Id":   "user-1",
		"X-Actor-Role": "company_admin",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiredBlocksNonAdminStaff(t *testing.T) {
	engine := newGuardedEngine()

	w := getWithHeaders(engine, "/api/admin-only", map[string]string{
		"X-Actor-Id":   "user-1",
		"X-Actor-Role": "accountant",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = getWithHeaders(engine, "/api/admin-only", map[string]string{
		"X-Actor-Id":   "user-1",
		"X-Actor-Role": "company_admin",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
