// Package gateway implements the HTTPS JSON-RPC client against the
// gw-light.php endpoint (§6.1), plus the email/password OAuth and ARL login
// flows (§C.1).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.deezer.com/ajax/gw-light.php"

// Client drives one gw-light.php session: request method, cookie jar
// (carries arl + session cookies), api token and client id.
type Client struct {
	baseURL   string
	http      *retryablehttp.Client
	limiter   *rate.Limiter
	jar       *cookiejar.Jar
	log       zerolog.Logger
	apiToken  string
	clientID  string
	userAgent string
}

// Config configures gateway client construction.
type Config struct {
	BaseURL            string
	ClientID           string
	UserAgent          string
	RequestsPerSecond  float64
	Burst              int
	RetryMax           int
	Timeout            time.Duration
}

// New builds a gateway Client with its own cookie jar.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.HTTPClient.Jar = jar

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		baseURL:   base,
		http:      retryClient,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		jar:       jar,
		log:       log,
		clientID:  cfg.ClientID,
		userAgent: cfg.UserAgent,
	}, nil
}

// SetAPIToken stores the token returned by deezer.getUserData, used on
// every subsequent call.
func (c *Client) SetAPIToken(token string) { c.apiToken = token }

// SetCookie injects a cookie (typically "arl") directly into the jar,
// bypassing the OAuth dance.
func (c *Client) SetCookie(domain string, cookie *http.Cookie) error {
	u, err := url.Parse(domain)
	if err != nil {
		return err
	}
	c.jar.SetCookies(u, []*http.Cookie{cookie})
	return nil
}

// CookieHeader renders this session's cookies for www.deezer.com as a
// single "Cookie" header value, so the websocket dial can replicate the
// gateway's session (§4.1.1 step 2, §6.3).
func (c *Client) CookieHeader() string {
	u, err := url.Parse("https://www.deezer.com")
	if err != nil {
		return ""
	}
	cookies := c.jar.Cookies(u)
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

// rpcEnvelope is the outer shape every gw-light.php response shares: a
// top-level "results" object (method-specific) or a non-empty "error" map.
type rpcEnvelope struct {
	Results json.RawMessage          `json:"results"`
	Error   map[string]interface{}   `json:"error"`
}

// Call issues one JSON-RPC method call against gw-light.php and decodes its
// "results" field into out.
func (c *Client) Call(ctx context.Context, method string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateway: rate limit wait: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gateway: marshal request: %w", err)
	}

	q := url.Values{}
	q.Set("method", method)
	q.Set("input", "3")
	q.Set("api_version", "1.0")
	q.Set("api_token", c.apiToken)
	q.Set("cid", c.clientID)
	fullURL := c.baseURL + "?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: %s: read body: %w", method, err)
	}

	c.log.Debug().Str("method", method).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("gateway call")

	var env rpcEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("gateway: %s: decode envelope: %w", method, err)
	}
	if len(env.Error) > 0 {
		return fmt.Errorf("gateway: %s: %v", method, env.Error)
	}
	if out == nil || len(env.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		return fmt.Errorf("gateway: %s: decode results: %w", method, err)
	}
	return nil
}
