/*
Package frame implements the length-prefixed message framing used between
telemetry producers and the ingestion server.

Each frame on the wire is a 4-byte unsigned big-endian length followed by
exactly that many bytes of UTF-8 encoded JSON.  The codec either yields a
complete payload or reports a connection fault; a partially read frame is
never surfaced to the caller.
*/
package frame

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
)

// Length header size in bytes.
const headerSize = 4

var (
	// ErrClosed reports that the peer closed the connection cleanly, on a
	// frame boundary.  It is a terminal condition, not a fault.
	ErrClosed = errors.New("frame: connection closed")

	// ErrTruncated reports that the connection dropped after part of a
	// frame had already been read.
	ErrTruncated = errors.New("frame: truncated frame")

	// ErrFrameTooLarge reports a payload whose size cannot be described by
	// the 4-byte length header.
	ErrFrameTooLarge = errors.New("frame: payload exceeds the 32-bit length bound")
)

/*
Encode prepends the big-endian length header to the payload and returns the
complete frame.
*/
func Encode(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[headerSize:], payload)

	return buf, nil
}

/*
Write encodes the payload and writes the whole frame to w.
*/
func Write(w io.Writer, payload []byte) error {
	buf, err := Encode(payload)
	if err != nil {
		return err
	}

	_, err = w.Write(buf)
	return err
}

/*
Read reads exactly one frame from r and returns its payload.

Partial reads from the underlying transport are expected: both the header and
the payload are read in a loop until the exact byte count is obtained.  A
stream that ends before the first header byte yields ErrClosed; a stream that
ends anywhere after that yields ErrTruncated.
*/
func Read(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	payload := make([]byte, binary.BigEndian.Uint32(header[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	return payload, nil
}

/*
WriteJSON marshals v and writes it as a single frame.
*/
func WriteJSON(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return Write(w, raw)
}

/*
ReadJSON reads one frame and unmarshals its payload into v.
*/
func ReadJSON(r io.Reader, v any) error {
	raw, err := Read(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
