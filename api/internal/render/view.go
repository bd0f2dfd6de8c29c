// Package render turns a normalized verdict (or a failure) into the display
// model shared by the bot, the web page and the CLI.
package render

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/verdict"
)

type Tone string

const (
	TonePending Tone = "pending"
	ToneSuccess Tone = "success"
	ToneAlert   Tone = "alert"
	ToneError   Tone = "error"
)

// Color is the CSS color cue for the tone.
func (t Tone) Color() string {
	switch t {
	case ToneAlert:
		return "#c0392b"
	case ToneSuccess:
		return "#27ae60"
	case ToneError:
		return "red"
	default:
		return "#333"
	}
}

// Emoji stands in for color on text-only surfaces.
func (t Tone) Emoji() string {
	switch t {
	case ToneAlert:
		return "🔴"
	case ToneSuccess:
		return "🟢"
	case ToneError:
		return "🚫"
	default:
		return "🔍"
	}
}

const PendingMessage = "Analyzing… Please wait."

// NoFileMessage is shown when the user submits without choosing a file.
const NoFileMessage = "Please choose a file to analyze."

type View struct {
	FileType   string   `json:"file_type,omitempty"`
	Prediction string   `json:"prediction,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Details    []string `json:"details,omitempty"`
	Tone       Tone     `json:"tone"`
	Color      string   `json:"color"`
	Message    string   `json:"message,omitempty"`
	EffectMS   int64    `json:"effect_ms,omitempty"`
}

// titleCase builds a fresh Caser: Casers are stateful and not goroutine-safe.
func titleCase(s string) string { return cases.Title(language.English).String(s) }

func Pending() View {
	return View{Tone: TonePending, Color: TonePending.Color(), Message: PendingMessage}
}

// Verdict builds the display view. effect is the snowfall duration for "fake".
func Verdict(r verdict.Result, effect time.Duration) View {
	v := View{
		FileType:   titleCase(string(r.FileType)),
		Prediction: "Real",
		Confidence: Percent(r.Confidence),
		Tone:       ToneSuccess,
	}
	if r.IsFake() {
		v.Prediction = "Fake"
		v.Tone = ToneAlert
		v.EffectMS = effect.Milliseconds()
	}
	for _, tr := range r.Tracks {
		d := fmt.Sprintf("%s track: %s", titleCase(tr.Track), Percent(tr.Confidence))
		if tr.Label != "" {
			d = fmt.Sprintf("%s track: %s, %s", titleCase(tr.Track), titleCase(tr.Label), Percent(tr.Confidence))
		}
		v.Details = append(v.Details, d)
	}
	v.Color = v.Tone.Color()
	return v
}

// NoFile is the prompt for a submission without a chosen file.
func NoFile() View {
	return View{Tone: ToneError, Color: ToneError.Color(), Message: NoFileMessage}
}

// Failure renders any error from the submit flow as a single message.
func Failure(err error) View {
	return View{Tone: ToneError, Color: ToneError.Color(), Message: "Error: " + Reason(err)}
}

// Reason maps the error taxonomy to user-facing text.
func Reason(err error) string {
	var (
		te *predict.TransportError
		ue *verdict.UnsupportedFileTypeError
	)
	switch {
	case err == nil:
		return "unknown error"
	case errors.As(err, &te):
		return te.Error()
	case errors.As(err, &ue):
		return fmt.Sprintf("Unsupported file_type: %s", ue.FileType)
	case errors.Is(err, verdict.ErrMalformedResponse):
		return "Invalid prediction data"
	default:
		return err.Error()
	}
}

// Percent formats confidence*100 with two decimals. Out-of-range values are
// clamped into [0, 100] for display only.
func Percent(conf float64) string {
	c := conf
	switch {
	case math.IsNaN(c):
		c = 0
	case c < 0:
		c = 0
	case c > 1:
		c = 1
	}
	if c != conf {
		log.WithField("confidence", conf).Warn("confidence out of [0,1], clamped for display")
	}
	return fmt.Sprintf("%.2f%%", c*100)
}

// Lines is the plain-text form: one "Key: value" per line.
func (v View) Lines() []string {
	if v.Tone == ToneError || v.Tone == TonePending {
		return []string{v.Message}
	}
	lines := []string{
		"File Type: " + v.FileType,
		"Prediction: " + v.Prediction,
		"Confidence: " + v.Confidence,
	}
	return append(lines, v.Details...)
}

func (v View) Text() string {
	return v.Tone.Emoji() + " " + strings.Join(v.Lines(), "\n")
}
