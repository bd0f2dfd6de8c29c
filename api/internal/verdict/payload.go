package verdict

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Payload: сырой ответ сервера для одного из трёх типов файлов.
// Набор вариантов закрыт: ImagePayload, AudioPayload, VideoPayload.
type Payload interface {
	Kind() FileType
	sealed()
}

// Scored: форма prediction для image и audio.
type Scored struct {
	Label      string
	Confidence float64
}

type ImagePayload struct{ Scored }

type AudioPayload struct{ Scored }

// VideoPayload: итог ансамбля по видео и (опционально) звуковой дорожке.
type VideoPayload struct {
	Final string
	Video *Track // nil, если сервер не прислал
	Audio *Track // nil для немых видео
}

// Track: предсказание одной дорожки. Confidence == nil означает «нет оценки».
type Track struct {
	Prediction string
	Confidence *float64
}

func (ImagePayload) Kind() FileType { return FileImage }
func (AudioPayload) Kind() FileType { return FileAudio }
func (VideoPayload) Kind() FileType { return FileVideo }

func (ImagePayload) sealed() {}
func (AudioPayload) sealed() {}
func (VideoPayload) sealed() {}

type envelope struct {
	FileType   *string         `json:"file_type"`
	Prediction json.RawMessage `json:"prediction"`
}

type scoredWire struct {
	Label      *string  `json:"label"`
	Confidence *float64 `json:"confidence"`
}

type trackWire struct {
	Prediction *string  `json:"prediction"`
	Confidence *float64 `json:"confidence"`
}

type videoWire struct {
	Final json.RawMessage `json:"final"`
	Video *trackWire      `json:"video"`
	Audio *trackWire      `json:"audio"`
}

// Decode разбирает тело ответа /predict_all в вариант Payload.
func Decode(raw []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed("bad json: %v", err)
	}
	if env.FileType == nil || strings.TrimSpace(*env.FileType) == "" {
		return nil, malformed("file_type is missing")
	}
	if !isObject(env.Prediction) {
		return nil, malformed("prediction is missing or not an object")
	}

	switch ft := FileType(*env.FileType); ft {
	case FileImage, FileAudio:
		var w scoredWire
		if err := json.Unmarshal(env.Prediction, &w); err != nil {
			return nil, malformed("%s prediction: %v", ft, err)
		}
		if w.Label == nil {
			return nil, malformed("%s prediction.label is missing", ft)
		}
		if w.Confidence == nil {
			return nil, malformed("%s prediction.confidence is missing", ft)
		}
		s := Scored{Label: *w.Label, Confidence: *w.Confidence}
		if ft == FileImage {
			return ImagePayload{s}, nil
		}
		return AudioPayload{s}, nil

	case FileVideo:
		var w videoWire
		if err := json.Unmarshal(env.Prediction, &w); err != nil {
			return nil, malformed("video prediction: %v", err)
		}
		var final string
		if len(w.Final) == 0 || json.Unmarshal(w.Final, &final) != nil || bytes.Equal(bytes.TrimSpace(w.Final), []byte("null")) {
			return nil, malformed("video prediction.final is not a string")
		}
		return VideoPayload{
			Final: final,
			Video: w.Video.track(),
			Audio: w.Audio.track(),
		}, nil

	default:
		return nil, &UnsupportedFileTypeError{FileType: *env.FileType}
	}
}

func (w *trackWire) track() *Track {
	if w == nil {
		return nil
	}
	t := &Track{Confidence: w.Confidence}
	if w.Prediction != nil {
		t.Prediction = *w.Prediction
	}
	return t
}

func isObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}
