package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/pithecene-io/gangway/types"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	encoder := NewFrameEncoder(&buf)

	envelope := types.NewEnvelope(types.EventTransferProgress)
	envelope.Progress = &types.ProgressSnapshot{
		TaskID:           "t-1",
		Filename:         "data.bin",
		Direction:        types.DirectionUpload,
		TransferredBytes: 8192,
		TotalBytes:       24000,
		Percentage:       34.1,
	}

	if err := encoder.WriteEnvelope(envelope); err != nil {
		t.Fatal(err)
	}

	decoder := NewFrameDecoder(&buf)
	got, err := decoder.ReadEnvelope()
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != types.EventTransferProgress {
		t.Errorf("type = %s", got.Type)
	}
	if got.Progress == nil || got.Progress.TransferredBytes != 8192 {
		t.Errorf("progress payload lost: %+v", got.Progress)
	}
	if got.WireVersion != types.WireVersion {
		t.Errorf("wire version = %s", got.WireVersion)
	}

	// Stream is now empty: clean EOF.
	if _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFrameDecoder_MultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	encoder := NewFrameEncoder(&buf)

	for _, typ := range []types.EventType{
		types.EventSessionConnected,
		types.EventTransferProgress,
		types.EventSessionDisconnected,
	} {
		if err := encoder.WriteEnvelope(types.NewEnvelope(typ)); err != nil {
			t.Fatal(err)
		}
	}

	decoder := NewFrameDecoder(&buf)
	var got []types.EventType
	for {
		envelope, err := decoder.ReadEnvelope()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, envelope.Type)
	}
	if len(got) != 3 || got[0] != types.EventSessionConnected || got[2] != types.EventSessionDisconnected {
		t.Errorf("frame order lost: %v", got)
	}
}

func TestFrameDecoder_TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], 100)
	buf.Write(lengthBuf[:])
	buf.Write([]byte("short"))

	decoder := NewFrameDecoder(&buf)
	_, err := decoder.ReadFrame()

	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorPartial {
		t.Fatalf("expected partial frame error, got %v", err)
	}
	if !IsFatalFrameError(err) {
		t.Error("partial frame should be fatal")
	}
}

func TestFrameDecoder_OversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], MaxPayloadSize+1)
	buf.Write(lengthBuf[:])

	decoder := NewFrameDecoder(&buf)
	_, err := decoder.ReadFrame()

	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorTooLarge {
		t.Fatalf("expected too-large frame error, got %v", err)
	}
	if !IsFatalFrameError(err) {
		t.Error("oversized frame should be fatal")
	}
}

func TestDecodeEventEnvelope_Garbage(t *testing.T) {
	_, err := DecodeEventEnvelope([]byte{0xc1, 0xff, 0x00})
	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
	if IsFatalFrameError(err) {
		t.Error("a decode error leaves framing intact and is not fatal")
	}
}
