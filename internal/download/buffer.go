// Package download implements the progressive download manager: an
// HTTP-backed buffer fed in the background while the decoder reads from it
// concurrently, with a storage policy choosing between an in-RAM buffer and
// a temporary file (§4.4.3, §4.4.5, §4.4.6, §5).
package download

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// backingStore is the minimal storage abstraction a Buffer writes into and
// reads from: either an in-memory growable byte slice or a temp file,
// chosen once per download per the storage policy (§4.4.6).
type backingStore interface {
	io.WriterAt
	io.ReaderAt
	Close() error
}

// ramStore is a growable in-memory backing store guarded by Buffer's own
// mutex (it never locks itself).
type ramStore struct {
	data []byte
}

func (r *ramStore) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(r.data)) {
		grown := make([]byte, end)
		copy(grown, r.data)
		r.data = grown
	}
	copy(r.data[off:end], p)
	return len(p), nil
}

func (r *ramStore) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *ramStore) Close() error { return nil }

// fileStore backs a download with a temporary file on disk.
type fileStore struct {
	f *os.File
}

func newFileStore(dir string) (*fileStore, error) {
	f, err := os.CreateTemp(dir, "connectcore-track-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("download: create temp file: %w", err)
	}
	_ = os.Remove(f.Name()) // unlink immediately; fd keeps it alive
	return &fileStore{f: f}, nil
}

func (s *fileStore) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, off) }
func (s *fileStore) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, off) }
func (s *fileStore) Close() error                             { return s.f.Close() }

// Buffer is the shared, concurrently-written/concurrently-read state of one
// in-flight download: bytes accumulated so far, total size if known, and
// whether the transfer has finished (successfully or not).
type Buffer struct {
	mu        sync.RWMutex
	store     backingStore
	written   int64
	totalSize int64
	hasSize   bool
	done      bool
	err       error
}

func newBuffer(store backingStore) *Buffer {
	return &Buffer{store: store}
}

func (b *Buffer) setTotalSize(n int64) {
	b.mu.Lock()
	b.totalSize = n
	b.hasSize = true
	b.mu.Unlock()
}

func (b *Buffer) appendChunk(p []byte) error {
	b.mu.Lock()
	off := b.written
	b.mu.Unlock()

	if _, err := b.store.WriteAt(p, off); err != nil {
		return err
	}

	b.mu.Lock()
	b.written += int64(len(p))
	b.mu.Unlock()
	return nil
}

func (b *Buffer) finish(err error) {
	b.mu.Lock()
	b.done = true
	b.err = err
	b.mu.Unlock()
}

// Snapshot returns (downloaded, totalSize, hasSize, done, err) in one
// locked read.
func (b *Buffer) Snapshot() (downloaded, total int64, hasSize, done bool, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.written, b.totalSize, b.hasSize, b.done, b.err
}

func (b *Buffer) readAt(p []byte, off int64) (int, error) {
	b.mu.RLock()
	written := b.written
	done := b.done
	b.mu.RUnlock()

	if off >= written {
		if done {
			return 0, io.EOF
		}
		return 0, nil
	}
	max := written - off
	if int64(len(p)) > max {
		p = p[:max]
	}
	return b.store.ReadAt(p, off)
}

func (b *Buffer) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Close()
}
