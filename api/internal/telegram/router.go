package telegram

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/effects"
	"deepfake-bot/api/internal/inflight"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/render"
	"deepfake-bot/api/internal/verdict"
)

type Router struct {
	Bot       BotAPI
	Predictor Predictor
	Gate      *inflight.Gate

	EffectDuration time.Duration
	Timeout        time.Duration // на одну отправку: скачивание + /predict_all
	MaxFileBytes   int64

	// Fetch скачивает файл по ссылке Bot API; при nil используется download.
	Fetch func(ctx context.Context, url string, limit int64) ([]byte, error)

	running sync.Map // *effects.Effect -> struct{}, идущие снегопады
}

func NewRouter(bot BotAPI, p Predictor) *Router {
	return &Router{
		Bot:            bot,
		Predictor:      p,
		Gate:           inflight.New(),
		EffectDuration: effects.DefaultDuration,
		Timeout:        defaultTimeout,
		MaxFileBytes:   defaultMaxFileMB << 20,
	}
}

// HandleUpdate безопасно вызывать из нескольких горутин: одна отправка на чат за раз.
func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}

	m, ok := pickMedia(msg)
	if !ok {
		// ничего не выбрано: в сеть не ходим
		r.send(msg.Chat.ID, render.NoFileMessage)
		return
	}
	r.analyze(msg, m)
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Неизвестная команда. /help")
	}
}

func (r *Router) analyze(msg *tgbotapi.Message, m media) {
	cid := msg.Chat.ID
	logger := log.WithFields(log.Fields{"chat_id": cid, "file": m.Filename})

	release, ok := r.Gate.TryEnter(cid)
	if !ok {
		r.send(cid, busyText)
		return
	}
	defer release()

	_, _ = r.Bot.Request(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))
	pendingID := r.sendView(cid, render.Pending(), msg.MessageID)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	res, err := r.submit(ctx, m)
	if err != nil {
		logger.WithError(err).Warn("analysis failed")
		r.showView(cid, pendingID, render.Failure(err))
		return
	}

	r.showView(cid, pendingID, render.Verdict(res, r.EffectDuration))
	if res.IsFake() {
		r.track(r.startSnowfall(cid, r.EffectDuration))
	}
}

func (r *Router) track(e *effects.Effect) {
	r.running.Store(e, struct{}{})
	go func() {
		<-e.Done()
		r.running.Delete(e)
	}()
}

// StopEffects обрывает идущие снегопады и ждёт, пока они уберут свои сообщения.
func (r *Router) StopEffects() {
	r.running.Range(func(k, _ any) bool {
		e := k.(*effects.Effect)
		e.Stop()
		<-e.Done()
		return true
	})
}

func (r *Router) submit(ctx context.Context, m media) (verdict.Result, error) {
	url, err := r.Bot.GetFileDirectURL(m.FileID)
	if err != nil {
		return verdict.Result{}, fmt.Errorf("telegram getFile: %w", err)
	}
	fetch := r.Fetch
	if fetch == nil {
		fetch = download
	}
	data, err := fetch(ctx, url, r.maxFileBytes())
	if err != nil {
		return verdict.Result{}, err
	}
	return r.Predictor.Predict(ctx, predict.Upload{
		Filename:    m.Filename,
		ContentType: m.MIME,
		Body:        bytes.NewReader(data),
	})
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("telegram send failed")
	}
}

// sendView отправляет View ответом на сообщение и возвращает его id (0 при ошибке).
func (r *Router) sendView(chatID int64, v render.View, replyTo int) int {
	msg := tgbotapi.NewMessage(chatID, formatView(v))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyToMessageID = replyTo
	sent, err := r.Bot.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("telegram send failed")
		return 0
	}
	return sent.MessageID
}

// showView перерисовывает сообщение «Analyzing…»; если его нет, шлёт новое.
func (r *Router) showView(chatID int64, msgID int, v render.View) {
	if msgID == 0 {
		r.sendView(chatID, v, 0)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, formatView(v))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.Bot.Send(edit); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("telegram edit failed, sending new message")
		r.sendView(chatID, v, 0)
	}
}

func (r *Router) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultTimeout
}

func (r *Router) maxFileBytes() int64 {
	if r.MaxFileBytes > 0 {
		return r.MaxFileBytes
	}
	return defaultMaxFileMB << 20
}
