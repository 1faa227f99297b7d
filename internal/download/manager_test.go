package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestManagerDownloadsIntoRAMWithinBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	m := NewManager(zerolog.Nop(), t.TempDir(), "test-agent", 1<<20)
	h, err := m.Start(context.Background(), srv.URL, false, 1024)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, _, _, done, _ := h.Buffer.Snapshot()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	pos, total, hasSize, done, err := h.Buffer.Snapshot()
	if !done || err != nil {
		t.Fatalf("expected download to finish cleanly, got done=%v err=%v", done, err)
	}
	if pos != 5 || !hasSize || total != 5 {
		t.Fatalf("unexpected snapshot: pos=%d total=%d hasSize=%v", pos, total, hasSize)
	}
}

func TestChooseStoreFallsBackToFileWhenBudgetExhausted(t *testing.T) {
	m := NewManager(zerolog.Nop(), t.TempDir(), "test-agent", 100)

	s1, err := m.chooseStore(false, 80)
	if err != nil {
		t.Fatalf("chooseStore: %v", err)
	}
	if _, ok := s1.(*ramStore); !ok {
		t.Fatal("expected first reservation to fit in RAM")
	}

	s2, err := m.chooseStore(false, 80)
	if err != nil {
		t.Fatalf("chooseStore: %v", err)
	}
	if _, ok := s2.(*fileStore); !ok {
		t.Fatal("expected second reservation to overflow to a temp file")
	}
}

func TestChooseStoreNoBudgetAlwaysUsesFile(t *testing.T) {
	m := NewManager(zerolog.Nop(), t.TempDir(), "test-agent", 0)
	s, err := m.chooseStore(false, 10)
	if err != nil {
		t.Fatalf("chooseStore: %v", err)
	}
	if _, ok := s.(*fileStore); !ok {
		t.Fatal("expected temp file with no RAM budget configured")
	}
}
