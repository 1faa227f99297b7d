// Package decrypt implements the striped block-cipher reader used for
// protected content: a Blowfish-family 64-bit-block cipher in CBC mode,
// applied to every third 2KiB block of the stream, with per-track keys
// derived from a process-wide secret (§4.5).
package decrypt

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// SecretLen is the length of the process-wide decryption secret (§4.5.2).
const SecretLen = 16

// Secret is a one-time-settable process-wide 16-byte value used to derive
// per-track keys. Preferred usage (per the design notes) is to construct
// one explicitly and thread it through, rather than relying on global
// mutable state; Secret itself is just a value type, so callers that want
// a process-wide singleton can wrap it themselves.
type Secret [SecretLen]byte

// NewSecret validates and wraps a 16-byte secret.
func NewSecret(b []byte) (Secret, error) {
	var s Secret
	if len(b) != SecretLen {
		return s, fmt.Errorf("decrypt: secret must be %d bytes, got %d", SecretLen, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// DeriveKey derives a track-specific 16-byte key from the track id and the
// process secret (§4.5.2):
//
//	h = md5_hex(ascii(track_id))            // 32 ASCII hex chars
//	key[i] = h[i] XOR h[i+16] XOR secret[i]
func DeriveKey(trackID string, secret Secret) [16]byte {
	sum := md5.Sum([]byte(trackID))
	h := hex.EncodeToString(sum[:]) // 32 ASCII hex characters

	var key [16]byte
	for i := 0; i < 16; i++ {
		key[i] = h[i] ^ h[i+16] ^ secret[i]
	}
	return key
}
