package telegram

import (
	"strings"

	"deepfake-bot/api/internal/render"
)

const (
	startText = "Пришли фото, видео, аудио или голосовое, скажу, настоящее оно или сгенерированное.\n" +
		"Send a photo, video, audio or voice message and I will tell whether it is real or fake.\nКоманды: /help, /health"
	busyText = "⏳ Still analyzing your previous file. Please wait for the result."
)

// formatView: Markdown-представление View, ключи жирным как на веб-странице.
func formatView(v render.View) string {
	if v.Tone == render.ToneError || v.Tone == render.TonePending {
		return v.Tone.Emoji() + " " + esc(v.Message)
	}
	var b strings.Builder
	b.WriteString(v.Tone.Emoji())
	b.WriteString(" *File Type:* ")
	b.WriteString(esc(v.FileType))
	b.WriteString("\n*Prediction:* ")
	b.WriteString(esc(v.Prediction))
	b.WriteString("\n*Confidence:* ")
	b.WriteString(esc(v.Confidence))
	for _, d := range v.Details {
		b.WriteString("\n_")
		b.WriteString(esc(d))
		b.WriteString("_")
	}
	return b.String()
}

// лёгкое экранирование для Markdown
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
