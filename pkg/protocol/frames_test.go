package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseFrameType(t *testing.T) {
	typ, err := ParseFrameType([]byte(`{"type":"req","id":"1","method":"ping"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != FrameTypeRequest {
		t.Errorf("expected %q, got %q", FrameTypeRequest, typ)
	}

	if _, err := ParseFrameType([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestNewErrorResponseRetryable(t *testing.T) {
	resp := NewErrorResponse("7", ErrUpstreamUnavailable, "provider down")
	if resp.OK {
		t.Error("error response must not be ok")
	}
	if !resp.Error.Retryable {
		t.Error("upstream unavailable should be retryable")
	}

	resp = NewErrorResponse("8", ErrBadRequest, "missing url")
	if resp.Error.Retryable {
		t.Error("bad request should not be retryable")
	}

	data, _ := json.Marshal(resp)
	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if decoded["type"] != FrameTypeResponse {
		t.Errorf("expected type res, got %v", decoded["type"])
	}
}
