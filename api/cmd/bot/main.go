package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"deepfake-bot/api/internal/config"
	"deepfake-bot/api/internal/httpserver"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/telegram"
)

func main() {
	cfg := config.LoadBot()
	cfg.SetupLogging()

	client, err := predict.New(cfg.PredictURL, cfg.PredictTimeout)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("endpoint", client.Endpoint()).Info("prediction service")

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	r := telegram.NewRouter(bot, client)
	r.EffectDuration = cfg.EffectDuration
	r.Timeout = cfg.PredictTimeout
	r.MaxFileBytes = cfg.MaxUploadBytes

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DefaultServeMux: на нём же регистрирует обработчик tgbotapi.ListenForWebhook
	http.Handle("/healthz", httpserver.Health("ok"))
	addr := "0.0.0.0:" + cfg.Port

	// --- Choose mode: Webhook vs Polling ---
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL != "" {
		err = runWebhookMode(ctx, addr, bot, r, webhookURL)
	} else {
		err = runPollingMode(ctx, addr, bot, r)
	}
	// снегопады убирают свои сообщения до выхода
	r.StopEffects()
	if err != nil {
		log.Fatal(err)
	}
	log.Info("bye")
}

// ---------------- Modes -----------------

func runWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) error {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	updates := bot.ListenForWebhook(path)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case upd, ok := <-updates:
				if !ok {
					log.Printf("webhook updates channel closed")
					return nil
				}
				go r.HandleUpdate(upd)
			}
		}
	})
	g.Go(func() error {
		log.Printf("webhook listening on %s%s", addr, path)
		return httpserver.Run(ctx, addr, nil)
	})
	return g.Wait()
}

func runPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) error {
	// снимаем вебхук, иначе getUpdates вернёт 409
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.WithError(err).Warn("deleteWebhook failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// healthz, хотя для polling он не обязателен
		return httpserver.Run(ctx, addr, nil)
	})
	g.Go(func() error {
		runPolling(ctx, bot, func(upd tgbotapi.Update) {
			go r.HandleUpdate(upd)
		})
		return nil
	})
	return g.Wait()
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

// clampDelay держит задержку ретрая в [base, max].
func clampDelay(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err), baseDelay, maxDelay)
			log.WithError(err).Warnf("polling error; retry in %v", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	// 16-символьный hex
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
