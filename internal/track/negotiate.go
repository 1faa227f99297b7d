// Package track drives a Track's media lifecycle: negotiating a playable
// medium against the gateway/media endpoints, opening its stream, inferring
// format parameters, sizing the prefetch window, and accounting download
// progress back into the track's Buffered value (§4.4).
package track

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dialtone/connectcore/internal/errs"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

// fallbackLadder is the preference-ordered (cipher, format) list submitted
// per requested quality (§4.4.1).
var fallbackLadder = map[model.Quality][]gateway.CipherFormat{
	model.QualityLossless: cipherFormats("FLAC", "MP3_320", "MP3_128", "MP3_64", "MP3_MISC"),
	model.QualityHigh:     cipherFormats("MP3_320", "MP3_128", "MP3_64", "MP3_MISC"),
	model.QualityStandard: cipherFormats("MP3_128", "MP3_64", "MP3_MISC"),
	model.QualityBasic:    cipherFormats("MP3_64", "MP3_MISC"),
}

func cipherFormats(formats ...string) []gateway.CipherFormat {
	out := make([]gateway.CipherFormat, len(formats))
	for i, f := range formats {
		cipher := "BF_CBC_STRIPE"
		if f == "MP3_MISC" {
			cipher = "NONE"
		}
		out[i] = gateway.CipherFormat{Cipher: cipher, Format: f}
	}
	return out
}

// Negotiated is the result of negotiating one track's medium: either the
// primary descriptor (index 0) or, if that was absent, the fallback
// descriptor (index 1) — §4.4.1.
type Negotiated struct {
	Medium      gateway.Medium
	IsFallback  bool
}

// Negotiate submits the requested quality's fallback ladder for track and
// returns the chosen medium, refusing unplayable tracks up front (§4.4.1).
func Negotiate(ctx context.Context, media *gateway.MediaClient, licenseToken string, t *model.Track, requested model.Quality) (*Negotiated, error) {
	if t.Unavailable {
		return nil, errs.New(errs.FailedPrecondition, t.ID, fmt.Errorf("track not available"))
	}
	if !t.Expiry.IsZero() && time.Now().After(t.Expiry) {
		return nil, errs.New(errs.FailedPrecondition, t.ID, fmt.Errorf("track token expired"))
	}
	if requested == model.QualityUnknown {
		return nil, errs.New(errs.InvalidArgument, t.ID, fmt.Errorf("unknown quality"))
	}

	// External (episode) and livestream tracks short-circuit negotiation
	// entirely: they build a synthetic medium from their own URLs.
	switch t.Type {
	case model.Episode:
		return negotiateEpisode(t)
	case model.Livestream:
		return negotiateLivestream(t, requested)
	}

	formats, ok := fallbackLadder[requested]
	if !ok {
		return nil, errs.New(errs.InvalidArgument, t.ID, fmt.Errorf("unknown quality"))
	}

	results, err := media.GetURL(ctx, licenseToken, []string{t.AccessToken}, formats)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("empty media response"))
	}
	item := results[0]
	if len(item.Errors) > 0 {
		return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("%s", item.Errors[0].Message))
	}

	if len(item.Media) > 0 && item.Media[0] != nil {
		return &Negotiated{Medium: *item.Media[0]}, nil
	}
	if len(item.Media) > 1 && item.Media[1] != nil {
		return &Negotiated{Medium: *item.Media[1], IsFallback: true}, nil
	}
	return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("no medium returned"))
}

func negotiateEpisode(t *model.Track) (*Negotiated, error) {
	if t.ExternalURL == "" {
		return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("episode has no direct url"))
	}
	return &Negotiated{Medium: gateway.Medium{
		Sources: []gateway.Source{{URL: t.ExternalURL, Provider: "episode"}},
	}}, nil
}

// negotiateLivestream filters bitrates at or below requested and, per
// bitrate, prefers AAC over MP3 (§4.4.1).
func negotiateLivestream(t *model.Track, requested model.Quality) (*Negotiated, error) {
	if len(t.LiveURLs) == 0 {
		return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("livestream has no urls"))
	}

	requestedKbps := qualityToApproxKbps(requested)
	var sources []gateway.Source
	for bitrate, urls := range t.LiveURLs {
		if bitrate > requestedKbps {
			continue
		}
		if urls.AACURL != "" {
			sources = append(sources, gateway.Source{URL: urls.AACURL, Provider: "aac"})
		} else if urls.MP3URL != "" {
			sources = append(sources, gateway.Source{URL: urls.MP3URL, Provider: "mp3"})
		}
	}
	if len(sources) == 0 {
		return nil, errs.New(errs.Unavailable, t.ID, fmt.Errorf("no livestream bitrate at or below requested"))
	}
	return &Negotiated{Medium: gateway.Medium{Sources: sources}}, nil
}

func qualityToApproxKbps(q model.Quality) int {
	switch q {
	case model.QualityLossless:
		return math.MaxInt32
	case model.QualityHigh:
		return 320
	case model.QualityStandard:
		return 128
	case model.QualityBasic:
		return 64
	default:
		return 0
	}
}

