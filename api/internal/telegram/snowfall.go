package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/effects"
)

// startSnowfall показывает снегопад отдельным сообщением: кадр в секунду,
// по истечении d сообщение удаляется. Результат анализа уже отрисован к этому моменту.
func (r *Router) startSnowfall(chatID int64, d time.Duration) *effects.Effect {
	return effects.Start("telegram-snowfall", d, func(ctx context.Context) {
		snow := effects.NewSnow(snowWidth, snowHeight, snowFlakes, uint64(time.Now().UnixNano()))
		var msgID int

		effects.Ticker(ctx, snowTick, func(tick int) {
			if tick > 0 {
				snow.Step()
			}
			text := "```\n" + snow.Frame() + "\n```"
			if msgID == 0 {
				msg := tgbotapi.NewMessage(chatID, text)
				msg.ParseMode = tgbotapi.ModeMarkdown
				msg.DisableNotification = true
				sent, err := r.Bot.Send(msg)
				if err != nil {
					log.WithError(err).WithField("chat_id", chatID).Debug("snowfall: send failed")
					return
				}
				msgID = sent.MessageID
				return
			}
			edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
			edit.ParseMode = tgbotapi.ModeMarkdown
			// "message is not modified" и лимиты правок не важны, это украшение
			_, _ = r.Bot.Send(edit)
		}, func() {
			if msgID != 0 {
				_, _ = r.Bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID))
			}
		})
	})
}
