package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/verdict"
)

// BotAPI: часть *tgbotapi.BotAPI, которой пользуется роутер.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Predictor: клиент /predict_all (predict.Client).
type Predictor interface {
	Predict(ctx context.Context, up predict.Upload) (verdict.Result, error)
}
