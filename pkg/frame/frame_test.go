package frame_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/fluxgate/fluxgate/pkg/frame"
)

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{}`),
		[]byte(`{"x":1}`),
		[]byte(`{"nested":{"a":[1,2,3],"b":null}}`),
		{},
		bytes.Repeat([]byte("a"), 1<<16),
	}

	for _, payload := range payloads {
		buf, err := frame.Encode(payload)
		if err != nil {
			t.Fatalf("Encode(%d bytes): %v", len(payload), err)
		}

		got, err := frame.Read(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(payload))
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sent := map[string]any{"x": 1.0, "s": "hi", "ok": true}

	if err := frame.WriteJSON(&buf, sent); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got map[string]any
	if err := frame.ReadJSON(&buf, &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if got["x"] != 1.0 || got["s"] != "hi" || got["ok"] != true {
		t.Fatalf("decoded %v, want %v", got, sent)
	}
}

// oneByteReader yields a single byte per Read call, forcing the decoder to
// loop over partial reads.
type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestPartialReads(t *testing.T) {
	payload := []byte(`{"gen_26":42,"city":"Tokyo"}`)
	buf, err := frame.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := frame.Read(oneByteReader{bytes.NewReader(buf)})
	if err != nil {
		t.Fatalf("Read one byte at a time: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestCleanClose(t *testing.T) {
	_, err := frame.Read(bytes.NewReader(nil))
	if !errors.Is(err, frame.ErrClosed) {
		t.Fatalf("empty stream: got %v, want ErrClosed", err)
	}
}

func TestTruncated(t *testing.T) {
	full, err := frame.Encode([]byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Partial header, partial payload, and the exact mid-header cut from
	// the wire protocol: 2 of 4 length bytes.
	for _, cut := range []int{1, 2, 3, 5, len(full) - 1} {
		_, err := frame.Read(bytes.NewReader(full[:cut]))
		if !errors.Is(err, frame.ErrTruncated) {
			t.Fatalf("cut at %d: got %v, want ErrTruncated", cut, err)
		}
	}
}
