package bridge

import (
	"sync"
	"testing"
	"time"
)

// recordingHandler collects every reported export.
type recordingHandler struct {
	mu   sync.Mutex
	urls []string
	ch   chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{ch: make(chan string, 16)}
}

func (h *recordingHandler) OnExportCompleted(url string) {
	h.mu.Lock()
	h.urls = append(h.urls, url)
	h.mu.Unlock()
	h.ch <- url
}

func (h *recordingHandler) URLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.urls...)
}

// wait returns the next reported export or fails the test after timeout.
func (h *recordingHandler) wait(t *testing.T, timeout time.Duration) string {
	t.Helper()
	select {
	case url := <-h.ch:
		return url
	case <-time.After(timeout):
		t.Fatal("timed out waiting for export")
		return ""
	}
}
