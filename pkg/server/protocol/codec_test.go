package protocol

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	want := Request{Version: 3, Set: map[string]interface{}{"A": true}}
	if err := enc.Encode(want); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewDecoder(&buf)
	var got Request
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Version != want.Version {
		t.Errorf("Version = %d, want %d", got.Version, want.Version)
	}
	if v, ok := got.Set["A"].(bool); !ok || !v {
		t.Errorf("Set[A] = %v, want true", got.Set["A"])
	}
}

func TestDecodeEOF(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	var req Request
	if err := dec.Decode(&req); err != io.EOF {
		t.Errorf("Decode on empty input = %v, want io.EOF", err)
	}
}

func TestDecodeRejectsEmptyLine(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte("\n")))
	var req Request
	if err := dec.Decode(&req); err == nil {
		t.Error("Decode on blank line: want error, got nil")
	}
}

func TestRequestValidateRejectsZeroVersion(t *testing.T) {
	req := Request{}
	if err := req.Validate(); err == nil {
		t.Error("Validate on zero-value Request: want error, got nil")
	}
}

func TestSupportsVersion(t *testing.T) {
	for _, v := range []int{1, 2, 3} {
		if !SupportsVersion(v) {
			t.Errorf("SupportsVersion(%d) = false, want true", v)
		}
	}
	if SupportsVersion(4) {
		t.Error("SupportsVersion(4) = true, want false")
	}
}
