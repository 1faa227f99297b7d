// Package remote implements the client side of the Connect protocol: device
// discovery, the connection handshake, queue synchronization, skip/seek
// handling, periodic progress reporting, and the watchdogs that guard the
// connection (§4.1).
package remote

import (
	"strconv"
	"strings"
)

// EncodeClientVersion turns a SemVer application version into the numeric
// client version the websocket URL's "version" query parameter expects
// (§4.1.1 step 2): each dot-separated component is zero-padded to three
// digits and concatenated, then leading-zero components of the whole
// result are stripped. "1.2.3" -> "001002003" -> "1002003".
func EncodeClientVersion(semver string) string {
	parts := semver
	if i := strings.IndexAny(semver, "-+"); i >= 0 {
		parts = semver[:i] // drop any -prerelease/+build suffix
	}
	components := strings.Split(parts, ".")

	var b strings.Builder
	for _, c := range components {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			n = 0
		}
		b.WriteString(padTo3(n))
	}

	digits := b.String()
	i := 0
	for i < len(digits)-1 && digits[i] == '0' {
		i++
	}
	return digits[i:]
}

func padTo3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
