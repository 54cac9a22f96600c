package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/logger"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRoles(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("s"), Issuer: "anime-shop", TTL: time.Hour}
	r := gin.New()
	r.Use(AuthJWT(j))
	r.GET("/public", func(c *gin.Context) {
		c.String(http.StatusOK, auth.UserID(c.Request.Context()))
	})
	r.GET("/me", RequireRoles(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/admin", RequireRoles("Staff", "Admin"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	customer, _, err := j.Issue("u1", "", []string{"Customer"})
	require.NoError(t, err)
	staff, _, err := j.Issue("s1", "", []string{"Staff"})
	require.NoError(t, err)
	bearer := func(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/public", nil).Code)
	assert.Equal(t, "u1", do(r, http.MethodGet, "/public", bearer(customer)).Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/public", bearer("garbage")).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/me", bearer(customer)).Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", bearer(customer)).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", bearer(staff)).Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, 16, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/", map[string]string{"X-Forwarded-For": "1.1.1.1"}).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/", map[string]string{"X-Forwarded-For": "1.1.1.1"}).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/", map[string]string{"X-Forwarded-For": "2.2.2.2"}).Code)
}

func TestRequestIDReachesContext(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, logger.RequestID(c.Request.Context())) })

	w := do(r, http.MethodGet, "/", map[string]string{KeyRequestID: "rid-1"})
	assert.Equal(t, "rid-1", w.Body.String())
	assert.Equal(t, "rid-1", w.Header().Get(KeyRequestID))
	assert.NotEmpty(t, do(r, http.MethodGet, "/", nil).Header().Get(KeyRequestID))
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(*gin.Context) { panic("boom") })
	w := do(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"errorCode":"InternalError"`)
}

func TestAccessLogMasksSecretsAndLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/cb", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	do(r, http.MethodGet, "/cb?vnp_SecureHash=abc&vnp_Amount=100", nil)
	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	q := e.ContextMap()["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["vnp_SecureHash"])
	assert.Equal(t, []string{"100"}, q["vnp_Amount"])
	assert.NotEmpty(t, e.ContextMap()["rid"])
}
