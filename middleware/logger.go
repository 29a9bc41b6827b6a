package middleware

import (
	"time"

	"discord-gif/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys the optimize handler fills in for the request log
const (
	UploadMD5Key    = "upload_md5"
	OptimizeTierKey = "optimize_tier"
)

// Logger logs every request through utils.Logger. Optimize requests also
// carry the upload digest and the cascade outcome.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", cost),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if md5 := c.GetString(UploadMD5Key); md5 != "" {
			fields = append(fields, zap.String("md5", md5))
		}
		if tier := c.GetString(OptimizeTierKey); tier != "" {
			fields = append(fields, zap.String("tier", tier))
		}
		utils.Logger.Info("request", fields...)
	}
}

// CORS lets the upload page be served from another origin during development
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Optimize-Tier, X-Optimize-Size-KB, X-Optimize-Caption, X-Upload-MD5")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
