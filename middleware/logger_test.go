package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"discord-gif/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })
	return logs
}

func TestLoggerRecordsUploadFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observeLogger(t)

	r := gin.New()
	r.Use(Logger())
	r.POST("/api/v1/optimize", func(c *gin.Context) {
		c.Set(UploadMD5Key, "1ac2109d47dbc72551f71df89d01ed18")
		c.Set(OptimizeTierKey, "further_optimized")
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/optimize", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 2 {
		t.Fatalf("logged %d requests, want 2", len(entries))
	}

	upload := entries[0].ContextMap()
	if upload["md5"] != "1ac2109d47dbc72551f71df89d01ed18" || upload["tier"] != "further_optimized" {
		t.Errorf("optimize request fields = %v", upload)
	}
	if upload["status"] != int64(http.StatusOK) {
		t.Errorf("status = %v, want 200", upload["status"])
	}

	health := entries[1].ContextMap()
	if _, ok := health["md5"]; ok {
		t.Errorf("health request logged an md5: %v", health)
	}
}

func TestCORSPreflightAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/api/v1/optimize", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/optimize", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got == "" {
		t.Error("expose headers not set")
	}
}
