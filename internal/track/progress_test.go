package track

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/pkg/model"
)

func TestTrackDownloadUpdatesBufferedOnComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	mgr := download.NewManager(zerolog.Nop(), t.TempDir(), "test-agent", 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &model.Track{ID: "1", Duration: 10 * time.Second, BitrateKbps: 128}
	h, err := mgr.Start(ctx, srv.URL, false, PrefetchSize(tr.BitrateKbps))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	TrackDownload(ctx, zerolog.Nop(), tr, h)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tr.Buffered.Get() == tr.Duration {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if tr.Buffered.Get() != tr.Duration {
		t.Fatalf("expected Buffered to equal Duration on completion, got %v want %v", tr.Buffered.Get(), tr.Duration)
	}
}

func TestResetDownloadClearsState(t *testing.T) {
	cancelled := false
	tr := &model.Track{
		FileSize: 1234,
		Download: &model.DownloadHandle{Cancel: func() { cancelled = true }},
	}
	tr.Buffered.Set(5 * time.Second)

	ResetDownload(tr)

	if !cancelled {
		t.Fatal("expected Cancel to be called")
	}
	if tr.Download != nil {
		t.Fatal("expected Download to be cleared")
	}
	if tr.FileSize != 0 {
		t.Fatal("expected FileSize to be cleared")
	}
	if tr.Buffered.Get() != 0 {
		t.Fatal("expected Buffered to be reset to zero")
	}
}
