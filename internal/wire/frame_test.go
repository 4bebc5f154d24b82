// ABOUTME: Tests for wire frame encoding, decoding, and shape validation.
// ABOUTME: Covers round-trips, optional-field absence, and protocol violations.

package wire

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_RoundTrip(t *testing.T) {
	orig := &Request{
		ID:     "req-1",
		Method: "agent",
		Params: map[string]string{"message": "hello", "sessionId": "main"},
	}

	data, err := Encode(orig)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	req, ok := decoded.(*Request)
	require.True(t, ok)
	assert.Equal(t, orig, req)
}

func TestRequest_NoParamsStaysAbsent(t *testing.T) {
	data, err := Encode(&Request{ID: "req-2", Method: "ping"})
	require.NoError(t, err)

	// The params key must not appear at all, not as an empty object.
	assert.NotContains(t, string(data), "params")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.(*Request).Params)
}

func TestResponse_RoundTrip_Success(t *testing.T) {
	orig := &Response{
		ID:      "req-1",
		OK:      true,
		Payload: map[string]string{"status": "ok"},
	}

	data, err := Encode(orig)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, orig, decoded.(*Response))
}

func TestResponse_RoundTrip_Error(t *testing.T) {
	orig := &Response{
		ID: "req-1",
		OK: false,
		Error: &FrameError{
			Code:    CodeAgentTimeout,
			Message: "agent did not answer in time",
		},
	}

	data, err := Encode(orig)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	res := decoded.(*Response)
	assert.Equal(t, orig, res)
	assert.Nil(t, res.Payload)
}

func TestResponse_FailedWithoutErrorRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"res","id":"x","ok":false}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither payload nor error")
}

func TestResponse_MissingIDRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"res","ok":true}`))
	assert.Error(t, err)
}

func TestEvent_RoundTrip(t *testing.T) {
	seq := int64(7)
	orig := &Event{
		Event:   "agent.status",
		Payload: map[string]string{"state": "running"},
		Seq:     &seq,
	}

	data, err := Encode(orig)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, orig, decoded.(*Event))
}

func TestEvent_NoSeqStaysAbsent(t *testing.T) {
	data, err := Encode(&Event{Event: "tick"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "seq")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.(*Event).Seq)
}

func TestDecode_UnknownTypeRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"push","id":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown frame type")
}

func TestDecode_MissingTypeRejected(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x","method":"ping"}`))
	assert.Error(t, err)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"type":"req",`))
	assert.Error(t, err)
}

func TestRequest_MissingMethodRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"req","id":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing method")
}

func TestEncode_AlwaysStampsType(t *testing.T) {
	// Callers may leave Type empty; Encode fills the discriminator.
	data, err := Encode(&Event{Event: "tick"})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"event"`, string(raw["type"]))
}

func TestFrameError_Error(t *testing.T) {
	err := &FrameError{Code: CodeNotPaired, Message: "device not paired"}
	assert.True(t, strings.HasPrefix(err.Error(), "NOT_PAIRED:"))
}
