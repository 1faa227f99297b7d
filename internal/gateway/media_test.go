package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetURLReturnsPrimaryAndFallbackMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/get_url" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"media":[
			{"format":"FLAC","cipher":{"type":"BF_CBC_STRIPE"},"sources":[{"url":"https://cdn/1.flac","provider":"cdn"}]},
			{"format":"MP3_128","cipher":{"type":"BF_CBC_STRIPE"},"sources":[{"url":"https://cdn/1.mp3","provider":"cdn"}]}
		]}]}`))
	}))
	defer srv.Close()

	m := NewMediaClient(srv.URL, 5*time.Second)
	items, err := m.GetURL(context.Background(), "license", []string{"track-token"}, []CipherFormat{{Cipher: "BF_CBC_STRIPE", Format: "FLAC"}})
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if len(items) != 1 || len(items[0].Media) != 2 {
		t.Fatalf("unexpected result shape: %+v", items)
	}
	if items[0].Media[0].Format != "FLAC" || items[0].Media[1].Format != "MP3_128" {
		t.Fatalf("unexpected media ordering: %+v", items[0].Media)
	}
}

func TestSetBaseURLRepointsRequests(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	m := NewMediaClient("", 5*time.Second)
	m.SetBaseURL(srv.URL)

	if _, err := m.GetURL(context.Background(), "license", nil, nil); err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if gotPath != "/v1/get_url" {
		t.Fatalf("request never reached the re-pointed server, got path %q", gotPath)
	}
}
