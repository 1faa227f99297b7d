package decrypt

import (
	"golang.org/x/crypto/blowfish"
)

// BlockSize is the wire block size the stripe cipher operates on (§4.5.1).
const BlockSize = 2048

// cipherBlockSize is the underlying Blowfish block size (64 bits).
const cipherBlockSize = 8

// iv is the fixed 8-byte CBC initialization vector used at the start of
// every encrypted block (§4.5.1). Cipher state resets to this IV at the
// start of each 2KiB block, so every encrypted block decrypts
// independently of its neighbors.
var iv = [cipherBlockSize]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}

// IsStriped reports whether the block at the given index is subject to
// encryption under the stripe pattern (§4.5.1): every third block.
func IsStriped(blockIndex int64) bool { return blockIndex%3 == 0 }

// cbcDecryptInPlace runs Blowfish-CBC decryption over block in place
// (ECB-per-8-bytes XORed with the running chain value); the encrypting
// direction is the separate cbcEncryptInPlace.
func cbcDecryptInPlace(block []byte, key [16]byte) error {
	c, err := blowfish.NewCipher(key[:])
	if err != nil {
		return err
	}
	prev := iv
	var tmp [cipherBlockSize]byte
	for off := 0; off+cipherBlockSize <= len(block); off += cipherBlockSize {
		chunk := block[off : off+cipherBlockSize]
		copy(tmp[:], chunk)
		c.Decrypt(chunk, chunk)
		for i := 0; i < cipherBlockSize; i++ {
			chunk[i] ^= prev[i]
		}
		prev = tmp
	}
	return nil
}

func cbcEncryptInPlace(block []byte, key [16]byte) error {
	c, err := blowfish.NewCipher(key[:])
	if err != nil {
		return err
	}
	prev := iv
	for off := 0; off+cipherBlockSize <= len(block); off += cipherBlockSize {
		chunk := block[off : off+cipherBlockSize]
		for i := 0; i < cipherBlockSize; i++ {
			chunk[i] ^= prev[i]
		}
		c.Encrypt(chunk, chunk)
		copy(prev[:], chunk)
	}
	return nil
}

// DecryptStripe decrypts a single 2KiB block in place if it is both full
// (exactly BlockSize bytes — a short tail block is never decrypted, §4.5.1
// and §8 boundary scenario C) and striped (blockIndex%3==0). Non-striped or
// short blocks pass through unmodified.
func DecryptStripe(block []byte, blockIndex int64, key [16]byte) error {
	if len(block) != BlockSize || !IsStriped(blockIndex) {
		return nil
	}
	return cbcDecryptInPlace(block, key)
}

// EncryptStripe is the inverse of DecryptStripe, used by tests to verify
// the round-trip property (§8 property 5).
func EncryptStripe(block []byte, blockIndex int64, key [16]byte) error {
	if len(block) != BlockSize || !IsStriped(blockIndex) {
		return nil
	}
	return cbcEncryptInPlace(block, key)
}
