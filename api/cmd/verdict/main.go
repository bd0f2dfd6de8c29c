// Command verdict sends one file to the prediction service and prints the
// verdict.
//
//	verdict [-url http://localhost:8000] [-timeout 120s] [-effects=true] FILE
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/config"
	"deepfake-bot/api/internal/effects"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/render"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	snowWidth  = 40
	snowHeight = 10
	snowFlakes = 24
	snowTick   = 120 * time.Millisecond
)

var (
	errNoFile     = errors.New(render.NoFileMessage)
	errBadTimeout = errors.New("timeout must be positive")
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()
	// логи в stderr, чтобы не мешать выводу вердикта
	log.SetOutput(os.Stderr)

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr, tty))
}

type options struct {
	url     string
	timeout time.Duration
	effects bool
	effect  time.Duration
	file    string
}

func parseArgs(cfg *config.Config, args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("verdict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := options{}
	fs.StringVar(&o.url, "url", cfg.PredictURL, "prediction service base URL")
	fs.DurationVar(&o.timeout, "timeout", cfg.PredictTimeout, "request timeout")
	fs.BoolVar(&o.effects, "effects", true, "play the snowfall for a fake verdict")
	fs.DurationVar(&o.effect, "effect-duration", cfg.EffectDuration, "snowfall duration")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: verdict [-url URL] [-timeout D] [-effects=false] FILE")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.timeout <= 0 {
		fmt.Fprintf(fs.Output(), "invalid -timeout %v: must be positive\n", o.timeout)
		return o, errBadTimeout
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errNoFile
	}
	o.file = fs.Arg(0)
	return o, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer, tty bool) int {
	o, err := parseArgs(cfg, args, stderr)
	if err != nil {
		if errors.Is(err, errNoFile) {
			fmt.Fprintln(stderr, render.NoFileMessage)
		}
		// без файла в сеть не ходим
		return exitUsage
	}

	view, err := analyze(ctx, o)
	fmt.Fprintln(stdout, paint(view, tty))
	if err != nil {
		return exitError
	}

	if view.Tone == render.ToneAlert && o.effects && tty {
		playSnowfall(stdout, o.effect)
	}
	return exitOK
}

func analyze(ctx context.Context, o options) (render.View, error) {
	f, err := os.Open(o.file)
	if err != nil {
		return render.Failure(err), err
	}
	defer f.Close()

	client, err := predict.New(o.url, o.timeout)
	if err != nil {
		return render.Failure(err), err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := client.Predict(ctx, predict.Upload{Filename: filepath.Base(o.file), Body: f})
	if err != nil {
		return render.Failure(err), err
	}
	return render.Verdict(res, o.effect), nil
}

func paint(v render.View, tty bool) string {
	text := v.Text()
	if !tty {
		return text
	}
	var code string
	switch v.Tone {
	case render.ToneSuccess:
		code = "\x1b[32m"
	case render.ToneAlert:
		code = "\x1b[31m"
	case render.ToneError:
		code = "\x1b[1;31m"
	default:
		return text
	}
	return code + text + "\x1b[0m"
}

// playSnowfall рисует снег под вердиктом и стирает его по окончании.
func playSnowfall(w io.Writer, d time.Duration) {
	e := effects.Start("cli-snowfall", d, func(ctx context.Context) {
		snow := effects.NewSnow(snowWidth, snowHeight, snowFlakes, uint64(time.Now().UnixNano()))
		drawn := false
		effects.Ticker(ctx, snowTick, func(tick int) {
			if tick > 0 {
				snow.Step()
			}
			if drawn {
				fmt.Fprintf(w, "\x1b[%dA", snowHeight)
			}
			fmt.Fprintln(w, snow.Frame())
			drawn = true
		}, func() {
			if drawn {
				fmt.Fprintf(w, "\x1b[%dA\x1b[J", snowHeight)
			}
		})
	})
	<-e.Done()
}
