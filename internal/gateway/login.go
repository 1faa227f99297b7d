package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const oauthBaseURL = "https://connect.deezer.com/oauth"

// LoginResult carries what the track/session layer needs after either login
// path completes: the arl cookie value to persist into the jar.
type LoginResult struct {
	ARL string
}

// passwordHash reproduces the OAuth password login's hash (§6.1):
// md5(client_id + email + md5_hex(password) + salt).
func passwordHash(clientID, email, password, salt string) string {
	pwHash := md5Hex(password)
	sum := md5.Sum([]byte(clientID + email + pwHash + salt))
	return hex.EncodeToString(sum[:])
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// oauthSessionSeed is the short-lived session id minted before the
// password-hashed login call.
type oauthSessionSeed struct {
	SessionID string
	Salt      string
}

func (c *Client) seedOAuthSession(ctx context.Context) (*oauthSessionSeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oauthBaseURL+"/session", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: oauth session seed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		SessionID string `json:"session_id"`
		Salt      string `json:"salt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gateway: oauth session seed: decode: %w", err)
	}
	return &oauthSessionSeed{SessionID: out.SessionID, Salt: out.Salt}, nil
}

// LoginWithPassword performs the two-step email+password OAuth dance: seed
// a session id and salt, then submit the password-hashed login, returning
// an access token that is exchanged for an arl via ExchangeAccessTokenForARL
// (§6.1, §C.1).
func (c *Client) LoginWithPassword(ctx context.Context, email, password string) (accessToken string, err error) {
	seed, err := c.seedOAuthSession(ctx)
	if err != nil {
		return "", err
	}

	hash := passwordHash(c.clientID, email, password, seed.Salt)

	form := url.Values{}
	form.Set("type", "email")
	form.Set("email", email)
	form.Set("password", hash)
	form.Set("session_id", seed.SessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthBaseURL+"/login", nil)
	if err != nil {
		return "", err
	}
	req.URL.RawQuery = form.Encode()

	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: oauth login: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gateway: oauth login: decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("gateway: oauth login: %s", out.Error)
	}
	return out.AccessToken, nil
}

// ExchangeAccessTokenForARL calls user.getArl to exchange an OAuth access
// token for the arl cookie value (§6.1).
func (c *Client) ExchangeAccessTokenForARL(ctx context.Context, accessToken string) (string, error) {
	var arl string
	body := map[string]interface{}{"access_token": accessToken}
	if err := c.Call(ctx, "user.getArl", body, &arl); err != nil {
		return "", err
	}
	return arl, nil
}

// LoginWithARL stores a caller-supplied arl value directly into the cookie
// jar, bypassing the OAuth flow entirely (§C.1: Credentials::Arl).
func (c *Client) LoginWithARL(arl string) error {
	return c.SetCookie("https://www.deezer.com", &http.Cookie{
		Name:  "arl",
		Value: arl,
		Path:  "/",
	})
}

// RenewSession refreshes the JWT-backed session using the refresh token
// carried in cookies (§6.1).
func (c *Client) RenewSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthBaseURL+"/session/renew", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: renew session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway: renew session: http %d", resp.StatusCode)
	}
	return nil
}

// Logout explicitly ends the session (§6.1).
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthBaseURL+"/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: logout: %w", err)
	}
	defer resp.Body.Close()
	return nil
}
