package predict

import (
	"fmt"
	"strings"
)

// TransportError: сетевой сбой или ответ не 2xx. Не ретраится.
type TransportError struct {
	StatusCode int    // 0 при сетевой ошибке
	StatusText string // "Bad Gateway"
	Detail     string // {"detail": "..."} из тела ответа, если есть
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	s := fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
	if d := strings.TrimSpace(e.Detail); d != "" {
		s += " (" + d + ")"
	}
	return s
}

func (e *TransportError) Unwrap() error { return e.Err }
