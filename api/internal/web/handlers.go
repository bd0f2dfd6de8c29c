package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/render"
)

func (s *Server) index(c *gin.Context) {
	// cookie выдаём уже на странице, чтобы первая же отправка шла под своим sid
	session(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Pending":  render.PendingMessage,
		"NoFile":   render.NoFileMessage,
		"EffectMS": s.opts.EffectDuration.Milliseconds(),
	})
}

// verdict принимает multipart "file" и отвечает render.View в JSON.
func (s *Server) verdict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+1<<20)

	fh, err := c.FormFile(predict.FormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, render.Failure(errors.New("file is too large")))
			return
		}
		// файл не выбран: в сервис не ходим
		c.JSON(http.StatusBadRequest, render.NoFile())
		return
	}
	if fh.Size > s.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, render.Failure(errors.New("file is too large")))
		return
	}

	sid := session(c)
	release, ok := s.opts.Gate.TryEnter("web:" + sid)
	if !ok {
		c.JSON(http.StatusConflict, render.Failure(errors.New("still analyzing your previous file")))
		return
	}
	defer release()

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, render.Failure(err))
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.Timeout)
	defer cancel()

	res, err := s.predictor.Predict(ctx, predict.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		log.WithFields(log.Fields{"sid": sid, "file": fh.Filename}).WithError(err).Warn("analysis failed")
		c.JSON(http.StatusBadGateway, render.Failure(err))
		return
	}

	log.WithFields(log.Fields{
		"sid":        sid,
		"file_type":  res.FileType,
		"label":      res.Label,
		"confidence": res.Confidence,
	}).Info("verdict")
	c.JSON(http.StatusOK, render.Verdict(res, s.opts.EffectDuration))
}

// session возвращает id из cookie sid, выдавая новый при первом заходе.
func session(c *gin.Context) string {
	if sid, err := c.Cookie(sessionCookie); err == nil && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sid, 0, "/", "", false, true)
	return sid
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http")
	}
}
