// Package model holds the domain types shared by the protocol engine, the
// track/download lifecycle, and the player: tracks, queues, and session
// state, as described in the data model.
package model

import (
	"sync"
	"time"
)

// Type distinguishes the three kinds of playable content Connect serves.
type Type int

const (
	Song Type = iota
	Episode
	Livestream
)

func (t Type) String() string {
	switch t {
	case Song:
		return "song"
	case Episode:
		return "episode"
	case Livestream:
		return "livestream"
	default:
		return "unknown"
	}
}

// Quality is the negotiated (or requested) audio quality tier.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityBasic
	QualityStandard
	QualityHigh
	QualityLossless
)

// Cipher identifies the content-protection scheme of a negotiated medium.
type Cipher int

const (
	CipherNone Cipher = iota
	CipherBFStripe
)

// Codec identifies the negotiated audio codec/container.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecADTS
	CodecFLAC
	CodecMP3
	CodecMP4
	CodecWAV
)

func (c Codec) String() string {
	switch c {
	case CodecADTS:
		return "adts"
	case CodecFLAC:
		return "flac"
	case CodecMP3:
		return "mp3"
	case CodecMP4:
		return "mp4"
	case CodecWAV:
		return "wav"
	default:
		return "unknown"
	}
}

// Descriptor identifies a track within a queue without carrying its full
// metadata (queues are built from descriptors, then hydrated).
type Descriptor struct {
	ID   string
	Type Type
}

// LivestreamURL is one bitrate's pair of stream URLs for a livestream.
type LivestreamURL struct {
	AACURL string
	MP3URL string
}

// Fallback holds the identity fields of an alternate track, swapped into the
// playing Track's identity when the primary medium is unavailable (§4.4.2).
type Fallback struct {
	ID        string
	Artist    string
	AlbumName string
	CoverID   string
	Duration  time.Duration
	Title     string
	GainDB    *float64
	Token     string
	Expiry    time.Time
}

// Buffered is the shared, mutex-guarded "how much of this track has been
// downloaded" value: written by the download progress callback, read by the
// seek clamp and the progress reporter. A poisoned state (guarded goroutine
// panicked mid-update) degrades to "stop updating, return the last good
// value" rather than propagating, matching the design's mutex-poisoning
// policy.
type Buffered struct {
	mu       sync.Mutex
	value    time.Duration
	poisoned bool
}

func (b *Buffered) Set(d time.Duration) {
	defer func() {
		if recover() != nil {
			b.mu.Lock()
			b.poisoned = true
			b.mu.Unlock()
		}
	}()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.poisoned {
		return
	}
	b.value = d
}

func (b *Buffered) Get() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Track is a track's immutable identity plus its mutable per-playback
// state (§3 Track).
type Track struct {
	ID   string
	Type Type

	// Metadata
	Title     string
	Artist    string
	AlbumName string // songs only
	CoverID   string
	GainDB    *float64 // gateway-supplied gain in dB, songs with gain
	Duration  time.Duration
	HasDuration bool // false for livestreams
	Expiry    time.Time

	// Access
	AccessToken string            // songs/episodes
	ExternalURL string            // episodes: single URL
	LiveURLs    map[int]LivestreamURL // livestreams: bitrate -> urls

	// Negotiated
	ActualQuality Quality
	Cipher        Cipher
	Codec         Codec
	BitrateKbps   int
	FileSize      int64 // 0 if unknown
	SampleRate    int
	Channels      int
	BitsPerSample int

	// Download
	Download *DownloadHandle
	Buffered Buffered

	// Fallback
	Fallback *Fallback

	Unavailable bool
}

// DownloadHandle is the opaque handle the track lifecycle attaches once a
// medium has been opened for streaming; it is cancel-on-drop (§5).
type DownloadHandle struct {
	Cancel func()
	Closer func() error
}

// IsComplete reports whether the track has been fully buffered. Livestreams
// are never complete (§3 invariant).
func (t *Track) IsComplete() bool {
	if t.Type == Livestream {
		return false
	}
	if !t.HasDuration {
		return false
	}
	return t.Buffered.Get() >= t.Duration
}

// ActivateFallback swaps the fallback's identity fields into the track,
// retaining the fallback box so state can still be inspected (§4.4.2).
func (t *Track) ActivateFallback() {
	fb := t.Fallback
	if fb == nil {
		return
	}
	t.ID = fb.ID
	t.Artist = fb.Artist
	t.AlbumName = fb.AlbumName
	t.CoverID = fb.CoverID
	t.Duration = fb.Duration
	t.HasDuration = fb.Duration > 0
	t.Title = fb.Title
	t.GainDB = fb.GainDB
	t.AccessToken = fb.Token
	t.Expiry = fb.Expiry
}
