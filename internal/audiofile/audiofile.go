// Package audiofile provides the unified Read+Seek handle the decoder reads
// from, whichever underlying transport produced the bytes: a buffered
// progressive download, or a decryption reader layered on top of one
// (§4.3.1).
package audiofile

import "io"

// File is the decoder-facing stream abstraction. Implementations must be
// safe for concurrent use by one reader goroutine and one progress-callback
// goroutine (the latter never touches Read/Seek directly).
type File interface {
	io.Reader
	io.Seeker
	io.Closer

	// Seekable reports whether Seek can be expected to succeed. Livestreams
	// are never seekable.
	Seekable() bool

	// Size returns the total byte length and whether it is known. Unknown
	// for livestreams and for downloads whose Content-Length was absent.
	Size() (int64, bool)
}

// plain wraps a Read+Seek+Close source whose bytes need no decryption: the
// raw buffered download reader (§4.4.3).
type plain struct {
	io.ReadSeekCloser
	seekable bool
	size     int64
	hasSize  bool
}

// NewPlain builds a File over an already-open, unencrypted stream.
func NewPlain(src io.ReadSeekCloser, seekable bool, size int64, hasSize bool) File {
	return &plain{ReadSeekCloser: src, seekable: seekable, size: size, hasSize: hasSize}
}

func (p *plain) Seekable() bool        { return p.seekable }
func (p *plain) Size() (int64, bool)   { return p.size, p.hasSize }

// encrypted wraps a decrypt.Reader (itself over the raw download) behind
// the same File interface, adding Close delegation since decrypt.Reader has
// no Close of its own.
type encrypted struct {
	seeker   io.ReadSeeker
	closer   io.Closer
	seekable bool
	size     int64
	hasSize  bool
}

// NewEncrypted builds a File over a decrypt.Reader (or any Read+Seek
// implementation), delegating Close to the original closer since the
// decryption layer doesn't own the underlying connection.
func NewEncrypted(seeker io.ReadSeeker, closer io.Closer, seekable bool, size int64, hasSize bool) File {
	return &encrypted{seeker: seeker, closer: closer, seekable: seekable, size: size, hasSize: hasSize}
}

func (e *encrypted) Read(p []byte) (int, error)         { return e.seeker.Read(p) }
func (e *encrypted) Seek(off int64, whence int) (int64, error) { return e.seeker.Seek(off, whence) }
func (e *encrypted) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
func (e *encrypted) Seekable() bool      { return e.seekable }
func (e *encrypted) Size() (int64, bool) { return e.size, e.hasSize }
