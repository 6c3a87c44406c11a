package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Message
		reason string
	}{
		{
			name: "export",
			raw:  `{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":"X"}}`,
			want: ExportCompleted{URL: "X"},
		},
		{
			name: "export with extra fields",
			raw:  `{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":" https://cdn/a.glb ","urlType":"httpURL","bodyId":"b1"}}`,
			want: ExportCompleted{URL: "https://cdn/a.glb"},
		},
		{name: "other source", raw: `{"source":"other","eventName":"v2.avatar.exported","data":{"url":"X"}}`, reason: ReasonSource},
		{name: "other event", raw: `{"source":"avaturn","eventName":"v2.avatar.changed","data":{"url":"X"}}`, reason: ReasonEvent},
		{name: "missing data", raw: `{"source":"avaturn","eventName":"v2.avatar.exported"}`, reason: ReasonMissingURL},
		{name: "null data", raw: `{"source":"avaturn","eventName":"v2.avatar.exported","data":null}`, reason: ReasonMissingURL},
		{name: "empty url", raw: `{"source":"avaturn","eventName":"v2.avatar.exported","data":{"url":""}}`, reason: ReasonMissingURL},
		{name: "data not an object", raw: `{"source":"avaturn","eventName":"v2.avatar.exported","data":"X"}`, reason: ReasonMalformed},
		{name: "not json", raw: `hello`, reason: ReasonMalformed},
		{name: "json string", raw: `"{\"source\":\"avaturn\"}"`, reason: ReasonMalformed},
		{name: "empty", raw: ``, reason: ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode([]byte(tt.raw), DefaultSource, DefaultExportEvent)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
				return
			}
			d, ok := got.(Discarded)
			require.True(t, ok, "expected Discarded, got %T", got)
			assert.Equal(t, tt.reason, d.Err.Reason)
		})
	}
}

func TestDecodeCustomTags(t *testing.T) {
	raw := []byte(`{"source":"studio","eventName":"done","data":{"url":"Y"}}`)

	assert.Equal(t, ExportCompleted{URL: "Y"}, Decode(raw, "studio", "done"))
	assert.IsType(t, Discarded{}, Decode(raw, DefaultSource, DefaultExportEvent))
}

func TestProtocolErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &ProtocolError{Reason: ReasonMalformed, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bridge: malformed envelope: boom", err.Error())
	assert.Equal(t, "bridge: missing url", (&ProtocolError{Reason: ReasonMissingURL}).Error())
}
