package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("0123456789"))
		default:
			http.Error(w, "file not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	b, err := download(context.Background(), srv.URL+"/ok", 10)
	if err != nil || string(b) != "0123456789" {
		t.Fatalf("download = %q, %v", b, err)
	}

	if _, err := download(context.Background(), srv.URL+"/ok", 4); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected size limit error, got %v", err)
	}

	if _, err := download(context.Background(), srv.URL+"/missing", 10); err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("expected status error, got %v", err)
	}
}
