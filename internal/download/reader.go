package download

import (
	"io"
	"time"
)

// Reader is a Read+Seek view over a Buffer, blocking on Read until more
// bytes arrive or the download finishes (§4.4.3, §5). It implements the
// audiofile.File interface directly (plus Seekable/Size).
type Reader struct {
	buf      *Buffer
	pos      int64
	seekable bool
}

// NewReader wraps buf for sequential/seek read access. seekable should be
// false for livestreams even though the underlying Buffer technically
// supports ReadAt (§4.3.1: "is-seekable (false for livestreams)").
func NewReader(buf *Buffer, seekable bool) *Reader {
	return &Reader{buf: buf, seekable: seekable}
}

func (r *Reader) Read(p []byte) (int, error) {
	for {
		n, err := r.buf.readAt(p, r.pos)
		if n > 0 {
			r.pos += int64(n)
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		// Not yet enough bytes and not done: wait briefly and retry,
		// mirroring the teacher's polling-read loop over a growing buffer.
		<-time.After(50 * time.Millisecond)
	}
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if !r.seekable {
		return 0, io.ErrUnexpectedEOF
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		_, total, hasSize, _, _ := r.buf.Snapshot()
		if !hasSize {
			return 0, io.ErrUnexpectedEOF
		}
		target = total + offset
	default:
		return 0, io.ErrUnexpectedEOF
	}
	if target < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.pos = target
	return target, nil
}

func (r *Reader) Close() error { return nil }

func (r *Reader) Seekable() bool { return r.seekable }

func (r *Reader) Size() (int64, bool) {
	_, total, hasSize, _, _ := r.buf.Snapshot()
	return total, hasSize
}
