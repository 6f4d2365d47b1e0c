package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRequest(t *testing.T, allowlist []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(allowlist))
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	engine.OPTIONS("/ping", func(c *gin.Context) {})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestCORSEmptyAllowlistPermitsAnyOrigin(t *testing.T) {
	recorder := corsRequest(t, nil, "GET", "https://app.example.com")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowlistedOriginEchoed(t *testing.T) {
	recorder := corsRequest(t, []string{"https://app.example.com"}, "GET", "https://app.example.com")
	require.Equal(t, "https://app.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, recorder.Header().Values("Vary"), "Origin")
}

func TestCORSUnlistedOriginGetsNoAllowHeaders(t *testing.T) {
	recorder := corsRequest(t, []string{"https://app.example.com"}, "GET", "https://evil.example.com")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	recorder := corsRequest(t, nil, "OPTIONS", "https://app.example.com")
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Empty(t, recorder.Body.String())
}
