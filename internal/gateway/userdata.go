package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dialtone/connectcore/internal/errs"
)

// UserData is the bootstrap payload from deezer.getUserData: user profile,
// preferred audio quality, gain target, the two distinct access tokens
// (§6.1), media base URL, and token expiry.
//
// Deezer's gw-light.php response carries two unrelated tokens that are easy
// to conflate: the top-level USER_TOKEN authenticates the Connect websocket
// (§6.3 "wss://live.deezer.com/ws/<user_token>"), while USER.OPTIONS'
// license_token authenticates the media endpoint (§6.2 get_url). Both are
// gated behind arl validity.
type UserData struct {
	UserID         string
	UserName       string
	APIToken       string
	UserToken      string
	LicenseToken   string
	MediaBaseURL   string
	AudioQuality   string
	GainTargetDB   float64
	TokenExpiresAt int64
}

// rawUserData mirrors the gw-light.php response shape loosely: several
// fields come back as integer 0 (instead of the expected string) when the
// session's arl cookie is invalid, which this decode step treats as the
// signal to fail with PermissionDenied rather than silently proceeding with
// empty identity fields (§6.1).
type rawUserData struct {
	User struct {
		ID            json.RawMessage `json:"USER_ID"`
		Name          json.RawMessage `json:"BLOG_NAME"`
		AudioSettings struct {
			Quality string `json:"AUDIO_QUALITY_PREFERENCE"`
		} `json:"AUDIO_SETTINGS"`
		Gain struct {
			TargetDB float64 `json:"TARGET"`
		} `json:"REPLAYGAIN_NORMALIZATION"`
		Options struct {
			LicenseToken string `json:"license_token"`
		} `json:"OPTIONS"`
	} `json:"USER"`
	CheckForm    json.RawMessage `json:"checkForm"`
	UserToken    json.RawMessage `json:"USER_TOKEN"`
	URLMediaLic  string          `json:"URL_MEDIA"`
	ExpirationTs int64           `json:"OFFER_TIME_TO_EXPIRE"`
}

// isInvalidArlField reports whether a raw JSON field came back as the
// literal integer 0 rather than a quoted string, the documented tell for an
// invalid arl (§6.1).
func isInvalidArlField(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	return string(raw) == "0"
}

func decodeJSONString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// GetUserData calls deezer.getUserData and validates the session's arl.
func (c *Client) GetUserData(ctx context.Context) (*UserData, error) {
	var raw rawUserData
	if err := c.Call(ctx, "deezer.getUserData", struct{}{}, &raw); err != nil {
		return nil, err
	}

	if isInvalidArlField(raw.User.ID) || isInvalidArlField(raw.UserToken) {
		return nil, errs.New(errs.PermissionDenied, "deezer.getUserData", errors.New("arl invalid"))
	}

	userID, _ := decodeJSONString(raw.User.ID)
	if userID == "" {
		// USER_ID sometimes arrives as a bare number rather than a string.
		var n int64
		if err := json.Unmarshal(raw.User.ID, &n); err == nil {
			userID = jsonInt(n)
		}
	}
	userToken, _ := decodeJSONString(raw.UserToken)

	userName, _ := decodeJSONString(raw.User.Name)

	c.SetAPIToken(mustDecodeCheckForm(raw.CheckForm))

	return &UserData{
		UserID:         userID,
		UserName:       userName,
		APIToken:       c.apiToken,
		UserToken:      userToken,
		LicenseToken:   raw.User.Options.LicenseToken,
		MediaBaseURL:   raw.URLMediaLic,
		AudioQuality:   raw.User.AudioSettings.Quality,
		GainTargetDB:   raw.User.Gain.TargetDB,
		TokenExpiresAt: raw.ExpirationTs,
	}, nil
}

func mustDecodeCheckForm(raw json.RawMessage) string {
	s, ok := decodeJSONString(raw)
	if !ok {
		return ""
	}
	return s
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
