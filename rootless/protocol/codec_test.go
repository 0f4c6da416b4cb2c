package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{Type: MessageTypeResponse, Payload: []byte("ok")}
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != headerSize+2 {
		t.Fatalf("frame length %d", buf.Len())
	}
	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if out.Type != in.Type || out.Flags != 0 {
		t.Fatalf("header mismatch")
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameDoesNotOverRead(t *testing.T) {
	var buf bytes.Buffer
	for _, p := range []string{"one", "two", ""} {
		if err := WriteFrame(&buf, Frame{Type: MessageTypeRequest, Payload: []byte(p)}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for _, want := range []string{"one", "two", ""} {
		f, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if string(f.Payload) != want {
			t.Fatalf("payload %q, want %q", f.Payload, want)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFrameRejections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Type: 0}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if err := WriteFrame(&buf, Frame{Type: MessageTypeRequest, Flags: 0x80}); !errors.Is(err, ErrInvalidFlags) {
		t.Fatalf("expected ErrInvalidFlags, got %v", err)
	}
	if err := WriteFrame(&buf, Frame{Type: MessageTypeRequest, Payload: make([]byte, MaxFramePayload+1)}); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}

	oversized := []byte{byte(MessageTypeRequest), 0, 0xff, 0xff, 0xff, 0xff}
	if _, err := ReadFrame(bytes.NewReader(oversized)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	zeroType := []byte{0, 0, 0, 0, 0, 0}
	if _, err := ReadFrame(bytes.NewReader(zeroType)); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	badFlags := []byte{1, 0x04, 0, 0, 0, 0}
	if _, err := ReadFrame(bytes.NewReader(badFlags)); !errors.Is(err, ErrInvalidFlags) {
		t.Fatalf("expected ErrInvalidFlags, got %v", err)
	}
	truncated := []byte{1, 0, 0, 0, 0, 5, 'a'}
	if _, err := ReadFrame(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestCodecCompression(t *testing.T) {
	payload := []byte(strings.Repeat("rootless ", 4096))
	c := Codec{CompressThreshold: 512}

	var buf bytes.Buffer
	if err := c.Write(&buf, MessageTypeRequest, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw := buf.Bytes()
	if raw[1]&FlagCompressed == 0 {
		t.Fatalf("repetitive payload should be compressed")
	}
	if len(raw) >= len(payload) {
		t.Fatalf("compressed frame not smaller: %d >= %d", len(raw), len(payload))
	}

	mt, out, err := c.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if mt != MessageTypeRequest || !bytes.Equal(out, payload) {
		t.Fatalf("round trip mismatch")
	}
}

func TestCodecSkipsSmallOrIncompressible(t *testing.T) {
	c := Codec{CompressThreshold: 512}
	var buf bytes.Buffer
	if err := c.Write(&buf, MessageTypeRequest, []byte("short")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Bytes()[1] != 0 {
		t.Fatalf("payload below threshold should not be compressed")
	}

	off := Codec{}
	buf.Reset()
	if err := off.Write(&buf, MessageTypeRequest, bytes.Repeat([]byte("a"), 4096)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Bytes()[1] != 0 {
		t.Fatalf("zero threshold should disable compression")
	}
	// A reader with compression disabled still accepts compressed frames.
	buf.Reset()
	_ = c.Write(&buf, MessageTypeRequest, bytes.Repeat([]byte("a"), 4096))
	if _, out, err := off.Read(&buf); err != nil || len(out) != 4096 {
		t.Fatalf("Read: %d bytes, %v", len(out), err)
	}
}

func TestDecompressLimit(t *testing.T) {
	compressed, err := Compress(bytes.Repeat([]byte{0}, 4096))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(compressed, 1024); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	out, err := Decompress(compressed, 4096)
	if err != nil || len(out) != 4096 {
		t.Fatalf("Decompress: %d bytes, %v", len(out), err)
	}
	if _, err := Decompress([]byte("not lz4"), 1024); !errors.Is(err, ErrDecompressionFailed) {
		t.Fatalf("expected ErrDecompressionFailed, got %v", err)
	}
}

func TestMessageTypeString(t *testing.T) {
	if MessageTypeRequest.String() != "REQUEST" || MessageType(99).String() != "UNKNOWN" {
		t.Fatalf("unexpected names")
	}
}
