package decrypt

import (
	"io"
)

// Reader implements buffered, block-aligned Read+Seek over an underlying
// stream encrypted with the stripe cipher (§4.5.3, §4.5.4). It holds a
// single BlockSize internal buffer for the currently decoded block.
type Reader struct {
	src      io.ReadSeeker
	key      [16]byte
	fileSize int64 // 0 if unknown
	hasSize  bool

	buf       [BlockSize]byte
	bufLen    int
	pos       int  // read offset within buf
	block     int64
	hasBlock  bool
}

// NewReader wraps src, whose total length (if known) is fileSize.
func NewReader(src io.ReadSeeker, key [16]byte, fileSize int64, hasSize bool) *Reader {
	return &Reader{src: src, key: key, fileSize: fileSize, hasSize: hasSize}
}

// fillBuf refills the internal buffer by seeking-to-current, as the design
// describes (§4.5.3: "if pos >= buffer_len, perform a seek-to-current to
// refill").
func (r *Reader) fillBuf() error {
	cur := r.block*BlockSize + int64(r.pos)
	_, err := r.seekAbsolute(cur)
	return err
}

func (r *Reader) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if r.pos >= r.bufLen {
			if err := r.fillBuf(); err != nil {
				if total > 0 {
					return total, nil
				}
				return 0, err
			}
			if r.bufLen == 0 {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
		}
		n := copy(p[total:], r.buf[r.pos:r.bufLen])
		r.pos += n
		total += n
	}
	return total, nil
}

// Seek implements io.Seeker semantics on top of the block-aligned decrypted
// stream (§4.5.4).
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.currentAbsolute() + offset
	case io.SeekEnd:
		if !r.hasSize {
			return 0, ErrUnknownSize
		}
		target = r.fileSize + offset
	default:
		return 0, ErrInvalidWhence
	}

	if target < 0 {
		return 0, ErrInvalidInput
	}
	if r.hasSize && target > r.fileSize {
		return 0, io.ErrUnexpectedEOF
	}

	return r.seekAbsolute(target)
}

func (r *Reader) currentAbsolute() int64 {
	if !r.hasBlock {
		return 0
	}
	return r.block*BlockSize + int64(r.pos)
}

// seekAbsolute performs the actual block fetch/decrypt described in §4.5.4:
// split into block/offset, seek the underlying stream if the block
// changed, read (exact if the block is known-full, partial otherwise), and
// decrypt in place only if the block came back full and is striped.
func (r *Reader) seekAbsolute(target int64) (int64, error) {
	block := target / BlockSize
	offset := int(target % BlockSize)

	if !r.hasBlock || block != r.block {
		if _, err := r.src.Seek(block*BlockSize, io.SeekStart); err != nil {
			return 0, err
		}

		n := 0
		var err error
		fullyPresent := r.hasSize && r.fileSize-block*BlockSize >= BlockSize
		if fullyPresent {
			_, err = io.ReadFull(r.src, r.buf[:BlockSize])
			if err == nil {
				n = BlockSize
			}
		} else {
			n, err = io.ReadAtLeast(r.src, r.buf[:], 0)
			if err == io.ErrUnexpectedEOF {
				err = nil
			}
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if n == BlockSize && IsStriped(block) {
			if derr := DecryptStripe(r.buf[:BlockSize], block, r.key); derr != nil {
				return 0, derr
			}
		}

		r.bufLen = n
		r.block = block
		r.hasBlock = true
	}

	r.pos = offset
	return target, nil
}
