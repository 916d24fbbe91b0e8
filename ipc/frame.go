// Package ipc implements event framing for the UI shell pipe.
//
// Events leave the process as length-prefixed msgpack frames over a
// byte stream (stdout pipe or unix socket). The shell side decodes the
// same framing; the contract is versioned via types.WireVersion inside
// the envelope, not the framing itself.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/gangway/types"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (1 MiB), including length prefix.
	// Events are small; a frame near this bound indicates a corrupt stream.
	MaxFrameSize = 1 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the big-endian length prefix in bytes.
	LengthPrefixSize = 4
)

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a frame encoding or decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot be resynchronized after this
// error. Partial and oversized frames are fatal; a single undecodable
// payload is not, since framing stays intact.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameEncoder writes length-prefixed msgpack frames to a stream.
// Not safe for concurrent use; callers serialize writes.
type FrameEncoder struct {
	writer io.Writer
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteEnvelope encodes the envelope and writes it as one frame.
func (e *FrameEncoder) WriteEnvelope(envelope *types.EventEnvelope) error {
	payload, err := msgpack.Marshal(envelope)
	if err != nil {
		return &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to encode event envelope",
			Err:  err,
		}
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := e.writer.Write(lengthBuf[:]); err != nil {
		return &FrameError{Kind: FrameErrorPartial, Msg: "failed to write length prefix", Err: err}
	}
	if _, err := e.writer.Write(payload); err != nil {
		return &FrameError{Kind: FrameErrorPartial, Msg: "failed to write payload", Err: err}
	}
	return nil
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame from the stream.
// Returns the raw payload bytes (msgpack-encoded).
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	// Read 4-byte big-endian length prefix
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		// Partial read of length prefix
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])

	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// ReadEnvelope reads and decodes the next event envelope.
func (d *FrameDecoder) ReadEnvelope() (*types.EventEnvelope, error) {
	payload, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeEventEnvelope(payload)
}

// DecodeEventEnvelope decodes a payload as an EventEnvelope.
func DecodeEventEnvelope(payload []byte) (*types.EventEnvelope, error) {
	var envelope types.EventEnvelope
	if err := msgpack.Unmarshal(payload, &envelope); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode event envelope",
			Err:  err,
		}
	}
	return &envelope, nil
}
