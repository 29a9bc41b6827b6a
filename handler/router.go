package handler

import (
	"embed"
	"net/http"

	"discord-gif/config"
	"discord-gif/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed static
var static embed.FS

// BuildInfo is reported by /version
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// NewRouter wires the upload page, the optimize API and the health routes.
func NewRouter(cfg *config.Config, processor Processor, build BuildInfo) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	r.GET("/", func(c *gin.Context) {
		page, err := static.ReadFile("static/index.html")
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": build.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, build)
	})

	optimizeHandler := NewOptimizeHandler(cfg, processor)
	api := r.Group("/api/v1")
	{
		api.POST("/optimize", optimizeHandler.Optimize)
	}

	return r
}
