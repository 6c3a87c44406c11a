package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveIgnoresForeignSource(t *testing.T) {
	h := newRecordingHandler()
	surface := NewSurface(false)
	surface.Open()
	tr := NewMessageTransport(h, surface)

	msg := tr.Receive([]byte(`{"source":"other","eventName":"v2.avatar.exported","data":{"url":"X"}}`))

	assert.IsType(t, Discarded{}, msg)
	assert.Empty(t, h.URLs())
	assert.True(t, surface.Visible())
}

func TestReceiveExportCallsHandlerOnceAndCloses(t *testing.T) {
	h := newRecordingHandler()
	surface := NewSurface(false)
	surface.Open()
	tr := NewMessageTransport(h, surface)

	msg := tr.Receive([]byte(`{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":"X"}}`))

	assert.Equal(t, ExportCompleted{URL: "X"}, msg)
	assert.Equal(t, []string{"X"}, h.URLs())
	assert.False(t, surface.Visible())
}

func TestReceiveDropsMalformed(t *testing.T) {
	h := newRecordingHandler()
	tr := NewMessageTransport(h, nil)
	tr.Surface().Open()

	for _, raw := range []string{`garbage`, `{}`, `{"source":"avaturn","eventName":"v2.avatar.exported","data":{}}`} {
		assert.IsType(t, Discarded{}, tr.Receive([]byte(raw)))
	}
	assert.Empty(t, h.URLs())
	assert.True(t, tr.Surface().Visible())
}

func TestReceiveWithCustomTags(t *testing.T) {
	h := newRecordingHandler()
	tr := NewMessageTransport(h, nil, WithSource("studio"), WithExportEvent("done"))

	tr.Receive([]byte(`{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":"X"}}`))
	tr.Receive([]byte(`{"source":"studio","eventName":"done","data":{"url":"Y"}}`))

	assert.Equal(t, []string{"Y"}, h.URLs())
}

func TestServeHTTPFeedsWebSocketFrames(t *testing.T) {
	h := newRecordingHandler()
	tr := NewMessageTransport(h, nil)
	tr.Surface().Open()
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	frames := []string{
		`{"source":"other","eventName":"v2.avatar.exported","data":{"url":"ignored"}}`,
		`not json`,
		`{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":"X"}}`,
	}
	for _, f := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))
	}

	assert.Equal(t, "X", h.wait(t, 2*time.Second))
	assert.Equal(t, []string{"X"}, h.URLs())
	assert.False(t, tr.Surface().Visible())
}

func TestServeHTTPRejectsPlainRequests(t *testing.T) {
	tr := NewMessageTransport(newRecordingHandler(), nil)
	rec := httptest.NewRecorder()

	tr.ServeHTTP(rec, httptest.NewRequest("GET", "/bridge", nil))

	assert.Equal(t, 400, rec.Code)
}
