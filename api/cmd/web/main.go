package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"deepfake-bot/api/internal/config"
	"deepfake-bot/api/internal/httpserver"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/web"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := predict.New(cfg.PredictURL, cfg.PredictTimeout)
	if err != nil {
		log.Fatal(err)
	}

	srv := web.New(client, web.Options{
		EffectDuration: cfg.EffectDuration,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Timeout:        cfg.PredictTimeout,
		AllowOrigins:   cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"endpoint": client.Endpoint(),
		"port":     cfg.Port,
	}).Info("starting web frontend")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, srv.Router())
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
