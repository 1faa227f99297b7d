package track

// defaultPrefetchBytes is used when the bitrate isn't known yet (§4.4.5).
const defaultPrefetchBytes = 60 * 1024

// PrefetchSize returns the number of bytes that must be buffered before
// playback may start: three seconds of audio at the given bitrate, or a
// fixed fallback when the bitrate is unknown (§4.4.5).
func PrefetchSize(bitrateKbps int) int64 {
	if bitrateKbps <= 0 {
		return defaultPrefetchBytes
	}
	return int64(bitrateKbps) * 1000 / 8 * 3
}
