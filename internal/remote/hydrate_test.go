package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

func newTestEngine(t *testing.T, handler http.HandlerFunc) (*Engine, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL, ClientID: "client", RetryMax: 0}, zerolog.Nop())
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	e := &Engine{log: zerolog.Nop(), gw: gw, session: model.NewSession()}
	return e, srv
}

func TestHydrateDescriptorsPreservesInputOrder(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"data":[
			{"SNG_ID":"2","SNG_TITLE":"Second"},
			{"SNG_ID":"1","SNG_TITLE":"First"}
		]}}`))
	})
	defer srv.Close()

	descs := []model.Descriptor{
		{ID: "1", Type: model.Song},
		{ID: "2", Type: model.Song},
	}
	tracks, err := e.hydrateDescriptors(context.Background(), descs)
	if err != nil {
		t.Fatalf("hydrateDescriptors: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != "1" || tracks[1].ID != "2" {
		t.Fatalf("hydrateDescriptors did not preserve input order: got %s, %s", tracks[0].ID, tracks[1].ID)
	}
}

func TestHydrateDescriptorsSkipsMissingTrack(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"data":[{"SNG_ID":"1","SNG_TITLE":"First"}]}}`))
	})
	defer srv.Close()

	descs := []model.Descriptor{
		{ID: "1", Type: model.Song},
		{ID: "missing", Type: model.Song},
	}
	tracks, err := e.hydrateDescriptors(context.Background(), descs)
	if err != nil {
		t.Fatalf("hydrateDescriptors: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "1" {
		t.Fatalf("expected only the resolvable track to survive, got %+v", tracks)
	}
}

func TestHydrateLivestreamParsesBitrateURLs(t *testing.T) {
	e, srv := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{
			"LIVESTREAM_ID":"ls1",
			"TITLE":"Some Station",
			"SOURCES":{"64":{"HLS_AAC_64":"aac-url","HLS_MP3_128":"mp3-url"}}
		}}`))
	})
	defer srv.Close()

	tr, err := e.hydrateLivestream(context.Background(), "ls1")
	if err != nil {
		t.Fatalf("hydrateLivestream: %v", err)
	}
	if tr.Type != model.Livestream || tr.ID != "ls1" {
		t.Fatalf("unexpected livestream track: %+v", tr)
	}
	urls, ok := tr.LiveURLs[64]
	if !ok {
		t.Fatalf("expected bitrate 64 entry, got %+v", tr.LiveURLs)
	}
	if urls.AACURL != "aac-url" || urls.MP3URL != "mp3-url" {
		t.Fatalf("unexpected urls: %+v", urls)
	}
}
