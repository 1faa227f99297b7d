package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the shared HTTP client, the RAM budget accounting, and the
// temp-directory used for file-backed downloads (§4.4.6).
type Manager struct {
	http      *http.Client
	log       zerolog.Logger
	tempDir   string
	userAgent string

	maxRAMBytes   int64 // 0 means "no RAM budget": always use a temp file
	ramRemaining  int64 // atomic
}

// NewManager builds a Manager. maxRAMBytes of 0 disables the RAM store
// entirely, matching the "without a budget: temporary file" rule (§4.4.6).
func NewManager(log zerolog.Logger, tempDir, userAgent string, maxRAMBytes int64) *Manager {
	return &Manager{
		http:         &http.Client{Timeout: 10 * time.Minute},
		log:          log,
		tempDir:      tempDir,
		userAgent:    userAgent,
		maxRAMBytes:  maxRAMBytes,
		ramRemaining: maxRAMBytes,
	}
}

// chooseStore implements the storage policy (§4.4.6): livestreams always
// stream into RAM (bounded separately by the caller via prefetchSize acting
// as a rolling window); other tracks use RAM only if, after accounting for
// prefetchSize, the remaining budget can still fit it; otherwise a temp
// file.
func (m *Manager) chooseStore(isLivestream bool, prefetchSize int64) (backingStore, error) {
	if m.maxRAMBytes <= 0 {
		return newFileStore(m.tempDir)
	}
	if isLivestream {
		return &ramStore{}, nil
	}

	remaining := atomic.LoadInt64(&m.ramRemaining)
	if remaining >= prefetchSize {
		atomic.AddInt64(&m.ramRemaining, -prefetchSize)
		return &ramStore{}, nil
	}
	return newFileStore(m.tempDir)
}

// releaseRAM returns a track's reservation to the budget once it's done
// with RAM (completed, evicted, or fell back to disk after all).
func (m *Manager) releaseRAM(prefetchSize int64) {
	if m.maxRAMBytes > 0 {
		atomic.AddInt64(&m.ramRemaining, prefetchSize)
	}
}

// Handle is one in-flight (or finished) download: the shared Buffer plus
// cancellation, matching model.DownloadHandle's Cancel/Closer contract
// (§5: "an optional download handle... cancel-on-drop").
type Handle struct {
	Buffer *Buffer
	cancel context.CancelFunc
	ramRes int64
	mgr    *Manager
}

func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) Close() error {
	h.cancel()
	err := h.Buffer.close()
	h.mgr.releaseRAM(h.ramRes)
	return err
}

// Start begins downloading url in the background and returns a Handle
// immediately; the caller reads through Handle.Buffer while bytes continue
// arriving. isLivestream and prefetchSize drive the storage policy
// (§4.4.6).
func (m *Manager) Start(ctx context.Context, url string, isLivestream bool, prefetchSize int64) (*Handle, error) {
	store, err := m.chooseStore(isLivestream, prefetchSize)
	if err != nil {
		return nil, err
	}

	dlCtx, cancel := context.WithCancel(ctx)
	buf := newBuffer(store)
	h := &Handle{Buffer: buf, cancel: cancel, ramRes: prefetchSize, mgr: m}

	go m.run(dlCtx, url, buf)

	return h, nil
}

func (m *Manager) run(ctx context.Context, url string, buf *Buffer) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		buf.finish(fmt.Errorf("download: build request: %w", err))
		return
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := m.http.Do(req)
	if err != nil {
		buf.finish(fmt.Errorf("download: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		buf.finish(fmt.Errorf("download: http %d", resp.StatusCode))
		return
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, parseErr := strconv.ParseInt(cl, 10, 64); parseErr == nil {
			buf.setTotalSize(n)
		}
	}

	chunk := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			buf.finish(ctx.Err())
			return
		default:
		}

		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			if err := buf.appendChunk(chunk[:n]); err != nil {
				buf.finish(err)
				return
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				buf.finish(nil)
				return
			}
			buf.finish(readErr)
			return
		}
	}
}
