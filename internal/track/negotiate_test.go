package track

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dialtone/connectcore/internal/errs"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

func newTestMediaClient(t *testing.T, body string) (*gateway.MediaClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	mc := gateway.NewMediaClient(srv.URL, 5*time.Second)
	return mc, srv
}

func TestNegotiateReturnsPrimaryMedium(t *testing.T) {
	mc, srv := newTestMediaClient(t, `{"data":[{"media":[{"format":"MP3_128","sources":[{"url":"https://cdn.example/a.mp3","provider":"cdn"}]}]}]}`)
	defer srv.Close()

	tr := &model.Track{ID: "1", Type: model.Song, AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
	n, err := Negotiate(context.Background(), mc, "license", tr, model.QualityStandard)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if n.IsFallback {
		t.Fatal("expected primary medium, got fallback")
	}
	if len(n.Medium.Sources) != 1 || n.Medium.Sources[0].URL != "https://cdn.example/a.mp3" {
		t.Fatalf("unexpected medium: %+v", n.Medium)
	}
}

func TestNegotiateFallsBackToSecondMedium(t *testing.T) {
	mc, srv := newTestMediaClient(t, `{"data":[{"media":[null,{"format":"MP3_64","sources":[{"url":"https://cdn.example/b.mp3"}]}]}]}`)
	defer srv.Close()

	tr := &model.Track{ID: "1", Type: model.Song, AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
	n, err := Negotiate(context.Background(), mc, "license", tr, model.QualityStandard)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if !n.IsFallback {
		t.Fatal("expected fallback medium")
	}
}

func TestNegotiateRefusesUnavailableTrack(t *testing.T) {
	tr := &model.Track{ID: "1", Unavailable: true}
	_, err := Negotiate(context.Background(), nil, "license", tr, model.QualityStandard)
	if !errs.Is(err, errs.FailedPrecondition) {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestNegotiateRefusesExpiredTrack(t *testing.T) {
	tr := &model.Track{ID: "1", Expiry: time.Now().Add(-time.Hour)}
	_, err := Negotiate(context.Background(), nil, "license", tr, model.QualityStandard)
	if !errs.Is(err, errs.FailedPrecondition) {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestNegotiateEpisodeUsesDirectURL(t *testing.T) {
	tr := &model.Track{ID: "1", Type: model.Episode, ExternalURL: "https://podcast.example/ep1.mp3"}
	n, err := Negotiate(context.Background(), nil, "", tr, model.QualityStandard)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if len(n.Medium.Sources) != 1 || n.Medium.Sources[0].URL != tr.ExternalURL {
		t.Fatalf("unexpected medium: %+v", n.Medium)
	}
}

func TestNegotiateLivestreamPrefersAACAtOrBelowRequestedBitrate(t *testing.T) {
	tr := &model.Track{
		ID:   "1",
		Type: model.Livestream,
		LiveURLs: map[int]model.LivestreamURL{
			64:  {MP3URL: "https://live.example/64.mp3"},
			128: {AACURL: "https://live.example/128.aac", MP3URL: "https://live.example/128.mp3"},
			320: {AACURL: "https://live.example/320.aac"},
		},
	}
	n, err := Negotiate(context.Background(), nil, "", tr, model.QualityStandard)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	found320 := false
	for _, s := range n.Medium.Sources {
		if s.URL == "https://live.example/320.aac" {
			found320 = true
		}
	}
	if found320 {
		t.Fatal("expected 320kbps bitrate to be filtered out for Standard quality")
	}
	for _, s := range n.Medium.Sources {
		if s.URL == "https://live.example/128.mp3" {
			t.Fatal("expected AAC to be preferred over MP3 at the same bitrate")
		}
	}
}

func TestFallbackActivationSwapsIdentity(t *testing.T) {
	tr := &model.Track{
		ID:     "primary",
		Title:  "Primary Title",
		Artist: "Primary Artist",
		Fallback: &model.Fallback{
			ID:       "fallback",
			Title:    "Fallback Title",
			Artist:   "Fallback Artist",
			Duration: 200 * time.Second,
			Token:    "fallback-token",
		},
	}
	tr.ActivateFallback()
	if tr.ID != "fallback" || tr.Title != "Fallback Title" || tr.Artist != "Fallback Artist" {
		t.Fatalf("fallback identity not swapped in: %+v", tr)
	}
	if tr.AccessToken != "fallback-token" {
		t.Fatalf("expected access token swapped from fallback, got %q", tr.AccessToken)
	}
	if tr.Fallback == nil {
		t.Fatal("expected fallback box to be retained after activation")
	}
}
