package decrypt

import "errors"

var (
	ErrUnknownSize   = errors.New("decrypt: seek relative to end requires a known size")
	ErrInvalidWhence = errors.New("decrypt: invalid whence")
	ErrInvalidInput  = errors.New("decrypt: seek target out of range")
)
