package verdict

import (
	"fmt"
	"math"
	"strings"
)

// Normalize сводит ответ /predict_all к Result. Чистая функция: без состояния и побочных эффектов.
func Normalize(raw []byte) (Result, error) {
	p, err := Decode(raw)
	if err != nil {
		return Result{}, err
	}
	return Reduce(p)
}

// Reduce выводит метку и уверенность из конкретного варианта Payload.
//
// Для видео: уверенность видеодорожки по умолчанию 0; если есть оценка звука,
// итог: среднее двух оценок, иначе берётся только видео.
func Reduce(p Payload) (Result, error) {
	switch v := p.(type) {
	case ImagePayload:
		return reduceScored(FileImage, v.Scored)
	case AudioPayload:
		return reduceScored(FileAudio, v.Scored)
	case VideoPayload:
		return reduceVideo(v)
	default:
		return Result{}, fmt.Errorf("verdict: unknown payload %T", p)
	}
}

func reduceScored(ft FileType, s Scored) (Result, error) {
	label, err := parseLabel(s.Label)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", ft, err)
	}
	return Result{FileType: ft, Label: label, Confidence: s.Confidence}, nil
}

func reduceVideo(v VideoPayload) (Result, error) {
	label, err := parseLabel(v.Final)
	if err != nil {
		return Result{}, fmt.Errorf("video: %w", err)
	}

	var vidConf float64
	tracks := make([]TrackScore, 0, 2)
	if v.Video != nil {
		if v.Video.Confidence != nil {
			vidConf = *v.Video.Confidence
		}
		tracks = append(tracks, TrackScore{Track: "video", Label: lower(v.Video.Prediction), Confidence: vidConf})
	}

	conf := vidConf
	if v.Audio != nil && v.Audio.Confidence != nil {
		audConf := *v.Audio.Confidence
		// половинки складываем по отдельности: сумма двух 1e308 даёт +Inf
		conf = vidConf/2 + audConf/2
		tracks = append(tracks, TrackScore{Track: "audio", Label: lower(v.Audio.Prediction), Confidence: audConf})
	}

	if math.IsNaN(conf) || math.IsInf(conf, 0) {
		return Result{}, malformed("video confidence %v is not finite", conf)
	}
	if len(tracks) == 0 {
		tracks = nil
	}
	return Result{FileType: FileVideo, Label: label, Confidence: conf, Tracks: tracks}, nil
}

func parseLabel(s string) (Label, error) {
	switch l := Label(lower(s)); l {
	case LabelReal, LabelFake:
		return l, nil
	default:
		return "", malformed("label %q is neither real nor fake", s)
	}
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
