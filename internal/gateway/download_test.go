package gateway_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/better-hash/ai-video-generator/internal/services"
)

func TestResolveAssetURLUsesAPIHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	client := newClient(t, server, time.Second)

	got, err := client.ResolveAssetURL("/videos/t1/output.mp4")
	if err != nil {
		t.Fatalf("ResolveAssetURL returned error: %v", err)
	}
	if want := server.URL + "/videos/t1/output.mp4"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	abs := "https://cdn.example.com/v.mp4"
	if got, _ := client.ResolveAssetURL(abs); got != abs {
		t.Fatalf("absolute url changed to %q", got)
	}
}

func TestDownloadReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("frame"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/t1/output.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	var out bytes.Buffer
	var last int64
	written, err := newClient(t, server, time.Second).Download(context.Background(), "/videos/t1/output.mp4", &out, func(n, _ int64) {
		last = n
	})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if written != int64(len(payload)) || last != written || !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("unexpected download result written=%d last=%d len=%d", written, last, out.Len())
	}
}

func TestDownloadNotFoundIsServerError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	var out bytes.Buffer
	_, err := newClient(t, server, time.Second).Download(context.Background(), "/missing.mp4", &out, nil)
	if !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestDownloadRejectsBlankURL(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	var out bytes.Buffer
	_, err := newClient(t, server, time.Second).Download(context.Background(), " ", &out, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
