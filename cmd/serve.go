package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"discord-gif/handler"
	"discord-gif/utils"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve the browser upload page and optimize API",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{
			Name:    "port",
			Usage:   "Listen address, overrides server.port",
			Aliases: []string{"p"},
		},
	},
	Action: serve,
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
	}
	if port := c.String("port"); port != "" {
		cfg.Server.Port = port
	}

	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize logger: %v", err), 1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting discord-gif server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	optimizer, err := newOptimizer(cfg)
	if err != nil {
		utils.Logger.Error("failed to build optimizer", zap.Error(err))
		return cli.Exit(err.Error(), 1)
	}

	gin.SetMode(cfg.Server.Mode)
	router := handler.NewRouter(cfg, optimizer, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Logger.Error("failed to start server", zap.Error(err))
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
