package track

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/internal/errs"
	"github.com/dialtone/connectcore/internal/gateway"
)

func hasHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host != ""
}

func withinValidityWindow(m gateway.Medium) bool {
	now := time.Now().Unix()
	if m.NotBefore != nil && now < *m.NotBefore {
		return false
	}
	if m.Expiry != nil && now > *m.Expiry {
		return false
	}
	return true
}

// OpenStream attempts each source in medium, in order, opening an HTTP
// download for the first one that validates and starts (§4.4.3).
func OpenStream(ctx context.Context, log zerolog.Logger, mgr *download.Manager, medium gateway.Medium, isLivestream bool, prefetchSize int64) (*download.Handle, error) {
	if !withinValidityWindow(medium) {
		log.Warn().Msg("track: medium outside its validity window")
		return nil, errs.New(errs.Unavailable, "", fmt.Errorf("medium not valid at this time"))
	}

	var lastErr error
	for _, src := range medium.Sources {
		if !hasHost(src.URL) {
			log.Warn().Str("url", src.URL).Msg("track: skipping source with no host")
			continue
		}
		h, err := mgr.Start(ctx, src.URL, isLivestream, prefetchSize)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("provider", src.Provider).Msg("track: source failed, trying next")
			continue
		}
		return h, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no valid sources")
	}
	return nil, errs.Wrap(errs.Unavailable, "", lastErr)
}
