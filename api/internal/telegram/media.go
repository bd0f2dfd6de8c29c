package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// media: файл из сообщения, который уйдёт на /predict_all.
type media struct {
	FileID   string
	Filename string
	MIME     string // "": клиент определит сам
}

// pickMedia выбирает файл из сообщения; false, если файла нет.
func pickMedia(msg *tgbotapi.Message) (media, bool) {
	switch {
	case len(msg.Photo) > 0:
		// берём самое большое превью
		ph := msg.Photo[len(msg.Photo)-1]
		return media{FileID: ph.FileID, Filename: "photo.jpg", MIME: "image/jpeg"}, true
	case msg.Video != nil:
		return media{FileID: msg.Video.FileID, Filename: orDefault(msg.Video.FileName, "video.mp4"), MIME: orDefault(msg.Video.MimeType, "video/mp4")}, true
	case msg.VideoNote != nil:
		return media{FileID: msg.VideoNote.FileID, Filename: "video_note.mp4", MIME: "video/mp4"}, true
	case msg.Audio != nil:
		return media{FileID: msg.Audio.FileID, Filename: orDefault(msg.Audio.FileName, "audio.mp3"), MIME: msg.Audio.MimeType}, true
	case msg.Voice != nil:
		return media{FileID: msg.Voice.FileID, Filename: "voice.ogg", MIME: orDefault(msg.Voice.MimeType, "audio/ogg")}, true
	case msg.Document != nil:
		return media{FileID: msg.Document.FileID, Filename: orDefault(msg.Document.FileName, "file"), MIME: msg.Document.MimeType}, true
	}
	return media{}, false
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// download скачивает файл по ссылке Bot API, не больше limit байт.
func download(ctx context.Context, url string, limit int64) ([]byte, error) {
	resp, err := fileClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode(), strings.TrimSpace(string(b)))
	}
	b, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("file exceeds %d MB", limit>>20)
	}
	return b, nil
}

var fileClient = resty.New().
	SetTimeout(60 * time.Second).
	SetLogger(log.StandardLogger())
