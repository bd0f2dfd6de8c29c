package predict

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"deepfake-bot/api/internal/util"
	"deepfake-bot/api/internal/verdict"
)

const (
	// Path: маршрут сервиса, который сам решает, в какую модель отправить файл.
	Path      = "/predict_all"
	FormField = "file"

	maxResponseBytes = 1 << 20
	sniffBytes       = 512
)

// Upload: файл, выбранный пользователем.
type Upload struct {
	Filename    string
	ContentType string // пусто: определим по имени или по байтам
	Body        io.Reader
}

type Client struct {
	endpoint string
	rc       *resty.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	endpoint, err := url.JoinPath(strings.TrimRight(strings.TrimSpace(baseURL), "/"), Path)
	if err != nil {
		return nil, fmt.Errorf("predict: bad base url %q: %w", baseURL, err)
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// видео с извлечением звука считается долго, ждём заголовки дольше обычного
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   20,
	}

	c := &Client{endpoint: endpoint}
	return c.WithHTTPClient(&http.Client{Timeout: timeout, Transport: tr}), nil
}

// WithHTTPClient overrides the underlying HTTP client (e.g., for tests or tracing).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h == nil {
		return c
	}
	c.rc = resty.NewWithClient(h).
		SetLogger(log.StandardLogger()).
		SetHeader("Accept", "application/json")
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

// Predict отправляет файл на /predict_all и нормализует ответ. Без ретраев.
func (c *Client) Predict(ctx context.Context, up Upload) (verdict.Result, error) {
	reqID := uuid.NewString()
	logger := log.WithFields(log.Fields{"request_id": reqID, "file": up.Filename})

	if up.Body == nil {
		return verdict.Result{}, fmt.Errorf("predict: upload %q has no body", up.Filename)
	}
	name := strings.TrimSpace(up.Filename)
	if name == "" {
		name = "upload"
	}

	// Content-Type части важен: сервер по нему выбирает image/video/audio.
	br := bufio.NewReaderSize(up.Body, sniffBytes)
	head, _ := br.Peek(sniffBytes)
	partType := util.PickMIME(up.ContentType, name, head)

	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID).
		SetMultipartField(FormField, name, partType, br).
		SetDoNotParseResponse(true).
		Post(c.endpoint)
	logger = logger.WithField("elapsed_ms", time.Since(start).Milliseconds())
	if err != nil {
		logger.WithError(err).Warn("predict request failed")
		return verdict.Result{}, &TransportError{Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxResponseBytes))
	if err != nil {
		return verdict.Result{}, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if !resp.IsSuccess() {
		te := &TransportError{
			StatusCode: resp.StatusCode(),
			StatusText: statusText(resp.StatusCode(), resp.Status()),
			Detail:     detailOf(raw),
		}
		logger.WithFields(log.Fields{"status": resp.StatusCode(), "body": util.Truncate(string(raw), 512)}).
			Warn("predict non-2xx")
		return verdict.Result{}, te
	}

	logger.WithFields(log.Fields{"part_type": partType, "raw": util.Truncate(string(raw), 1024)}).
		Debug("raw predict response")

	res, err := verdict.Normalize(raw)
	if err != nil {
		logger.WithError(err).Warn("predict response rejected")
		return verdict.Result{}, err
	}
	logger.WithFields(log.Fields{
		"file_type":  res.FileType,
		"label":      res.Label,
		"confidence": res.Confidence,
	}).Info("prediction received")
	return res, nil
}

func statusText(code int, status string) string {
	// status = "502 Bad Gateway"
	if s := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code))); s != "" {
		return s
	}
	return http.StatusText(code)
}

// detailOf достаёт {"detail": "..."} из ответа FastAPI.
func detailOf(raw []byte) string {
	var env struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Detail == nil {
		return ""
	}
	switch d := env.Detail.(type) {
	case string:
		return util.Truncate(d, 200)
	default:
		b, _ := json.Marshal(d)
		return util.Truncate(string(b), 200)
	}
}
