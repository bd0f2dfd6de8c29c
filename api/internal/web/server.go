// Package web serves the upload page and the JSON verdict endpoint the page
// talks to.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"deepfake-bot/api/internal/effects"
	"deepfake-bot/api/internal/inflight"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/verdict"
)

//go:embed templates static
var assets embed.FS

// Predictor is satisfied by *predict.Client.
type Predictor interface {
	Predict(ctx context.Context, up predict.Upload) (verdict.Result, error)
}

type Options struct {
	EffectDuration time.Duration
	MaxUploadBytes int64
	Timeout        time.Duration
	Gate           *inflight.Gate
	AllowOrigins   []string // пусто: любой origin
}

type Server struct {
	predictor Predictor
	opts      Options
}

const (
	defaultMaxUpload = 20 << 20
	defaultTimeout   = 120 * time.Second
	sessionCookie    = "sid"
)

func New(p Predictor, opts Options) *Server {
	if opts.EffectDuration <= 0 {
		opts.EffectDuration = effects.DefaultDuration
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Gate == nil {
		opts.Gate = inflight.New()
	}
	return &Server{predictor: p, opts: opts}
}

// Router собирает gin.Engine со страницей, статикой и API.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.opts.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = s.opts.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	router.SetHTMLTemplate(template.Must(template.ParseFS(assets, "templates/*.html")))
	static, _ := fs.Sub(assets, "static")
	router.StaticFS("/static", http.FS(static))

	router.GET("/", s.index)
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	api := router.Group("/api")
	{
		api.POST("/verdict", s.verdict)
	}
	return router
}
