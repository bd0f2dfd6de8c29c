package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/effects"
)

type Config struct {
	Port       string
	WebhookURL string

	TelegramBotToken string

	PredictURL     string        // база сервиса, /predict_all добавляется клиентом
	PredictTimeout time.Duration // без ретраев: один запрос на одну отправку
	EffectDuration time.Duration
	MaxUploadBytes int64

	CORSOrigins []string // пусто: любой origin

	LogLevel  string
	LogFormat string // text | json
}

func mustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// допускаем голое число миллисекунд: EFFECT_DURATION=6000
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	log.Warnf("bad %s=%q, using %v", k, v, def)
	return def
}

func getInt(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("bad %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

// getList читает список через запятую.
func getList(k string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(k, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Load читает общие настройки; ни одна из них не обязательна.
func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		WebhookURL: getEnv("WEBHOOK_URL", ""),

		PredictURL:     getEnv("PREDICT_URL", "http://localhost:8000"),
		PredictTimeout: getDuration("PREDICT_TIMEOUT", 120*time.Second),
		EffectDuration: getDuration("EFFECT_DURATION", effects.DefaultDuration),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_MB", 20)) << 20,

		CORSOrigins: getList("CORS_ORIGINS"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// LoadBot: Load плюс токен бота, без которого бот не стартует.
func LoadBot() *Config {
	cfg := Load()
	cfg.TelegramBotToken = mustEnv("TELEGRAM_BOT_TOKEN")
	return cfg
}

// SetupLogging настраивает logrus по LOG_LEVEL / LOG_FORMAT.
func (c *Config) SetupLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("bad LOG_LEVEL=%q, using info", c.LogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
