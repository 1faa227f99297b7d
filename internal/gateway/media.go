package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dialtone/connectcore/internal/errs"
)

// MediaClient negotiates actual streamable sources against
// <media_base>/v1/get_url (§6.2), a distinct system from the gw-light.php
// gateway and given its own HTTP client rather than reusing the
// rate-limited retryablehttp one.
type MediaClient struct {
	http *resty.Client
}

// NewMediaClient builds a MediaClient. baseURL may be empty: the real media
// base URL isn't known until deezer.getUserData responds, so callers that
// construct a MediaClient ahead of login call SetBaseURL once bootstrap
// completes (§6.2).
func NewMediaClient(baseURL string, timeout time.Duration) *MediaClient {
	return &MediaClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// SetBaseURL repoints the client at the media base URL returned by
// deezer.getUserData's URL_MEDIA field.
func (m *MediaClient) SetBaseURL(baseURL string) {
	m.http.SetBaseURL(baseURL)
}

// CipherFormat is one (cipher, format) preference pair submitted in
// preference order (§4.4.1).
type CipherFormat struct {
	Cipher string `json:"cipher"`
	Format string `json:"format"`
}

type mediaRequest struct {
	LicenseToken string        `json:"license_token"`
	TrackTokens  []string      `json:"track_tokens"`
	Media        []mediaEntry  `json:"media"`
}

type mediaEntry struct {
	Type          string         `json:"type"`
	CipherFormats []CipherFormat `json:"cipher_formats"`
}

// Source is one streamable URL candidate within a Medium.
type Source struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// Medium is one negotiated media descriptor (§6.2).
type Medium struct {
	Format    string   `json:"format"`
	Cipher    struct {
		Type string `json:"type"`
	} `json:"cipher"`
	Sources   []Source `json:"sources"`
	NotBefore *int64   `json:"not_before,omitempty"`
	Expiry    *int64   `json:"expiry,omitempty"`
	MediaType string   `json:"media_type"`
}

type MediaResultItem struct {
	Media  []*Medium `json:"media"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type mediaResponse struct {
	Data []MediaResultItem `json:"data"`
}

// GetURL submits one preference-ordered (cipher, format) ladder per track
// token and returns, for each submitted token, its primary and optional
// fallback medium (index 0 and 1 of that token's "media" array) per
// §4.4.1.
func (m *MediaClient) GetURL(ctx context.Context, licenseToken string, trackTokens []string, formats []CipherFormat) ([]MediaResultItem, error) {
	req := mediaRequest{
		LicenseToken: licenseToken,
		TrackTokens:  trackTokens,
		Media: []mediaEntry{
			{Type: "FULL", CipherFormats: formats},
		},
	}

	var out mediaResponse
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/get_url")
	if err != nil {
		return nil, errs.New(errs.Unavailable, "media.get_url", err)
	}
	if !resp.IsSuccess() {
		return nil, errs.New(errs.Unavailable, "media.get_url", fmt.Errorf("http %d", resp.StatusCode()))
	}
	return out.Data, nil
}
