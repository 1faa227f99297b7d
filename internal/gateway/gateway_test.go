package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c, err := New(Config{BaseURL: srv.URL, ClientID: "client", RetryMax: 0}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestGetUserDataDetectsInvalidARL(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"USER":{"USER_ID":0,"BLOG_NAME":0},"USER_TOKEN":0}}`))
	})
	defer srv.Close()

	_, err := c.GetUserData(context.Background())
	if !errs.Is(err, errs.PermissionDenied) {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestGetUserDataParsesValidPayload(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{
			"USER":{"USER_ID":"123","BLOG_NAME":"tester","AUDIO_SETTINGS":{"AUDIO_QUALITY_PREFERENCE":"high"},"REPLAYGAIN_NORMALIZATION":{"TARGET":-15}},
			"USER_TOKEN":"abcd1234",
			"checkForm":"tok-1",
			"URL_MEDIA":"https://media.example/",
			"OFFER_TIME_TO_EXPIRE":1700000000
		}}`))
	})
	defer srv.Close()

	ud, err := c.GetUserData(context.Background())
	if err != nil {
		t.Fatalf("GetUserData: %v", err)
	}
	if ud.UserID != "123" || ud.UserName != "tester" || ud.UserToken != "abcd1234" {
		t.Fatalf("unexpected user data: %+v", ud)
	}
	if ud.MediaBaseURL != "https://media.example/" {
		t.Fatalf("unexpected media base url: %v", ud.MediaBaseURL)
	}
	if c.apiToken != "tok-1" {
		t.Fatalf("expected api token to be adopted from checkForm, got %q", c.apiToken)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"VALID_TOKEN_REQUIRED":"invalid CSRF token"}}`))
	})
	defer srv.Close()

	var out json.RawMessage
	err := c.Call(context.Background(), "song.getListData", struct{}{}, &out)
	if err == nil {
		t.Fatal("expected an error from a non-empty error envelope")
	}
}

func TestPasswordHashIsDeterministic(t *testing.T) {
	h1 := passwordHash("client1", "user@example.com", "hunter2", "salt")
	h2 := passwordHash("client1", "user@example.com", "hunter2", "salt")
	if h1 != h2 {
		t.Fatal("passwordHash must be deterministic for identical inputs")
	}
	if h3 := passwordHash("client1", "user@example.com", "hunter3", "salt"); h3 == h1 {
		t.Fatal("passwordHash must differ when the password differs")
	}
}
