package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxFramePayload limits a single frame payload, before and after
	// decompression.
	MaxFramePayload = 1 << 20 // 1 MiB

	headerSize = 6
)

var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
	ErrInvalidType   = errors.New("protocol: invalid message type")
	ErrInvalidFlags  = errors.New("protocol: unknown frame flags")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	1 byte: flags
//	4 bytes: payload length (big endian)
//	N bytes: payload
type Frame struct {
	Type    MessageType
	Flags   uint8
	Payload []byte
}

// WriteFrame writes f as a single buffered write.
func WriteFrame(w io.Writer, f Frame) error {
	if f.Type == 0 {
		return ErrInvalidType
	}
	if f.Flags&^FlagCompressed != 0 {
		return ErrInvalidFlags
	}
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}

	bw := bufio.NewWriter(w)
	var hdr [headerSize]byte
	hdr[0] = byte(f.Type)
	hdr[1] = f.Flags
	binary.BigEndian.PutUint32(hdr[2:], uint32(len(f.Payload)))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := bw.Write(f.Payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFrame reads exactly one frame from r and nothing more.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	payloadLen := binary.BigEndian.Uint32(hdr[2:])
	if payloadLen > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}
	mt := MessageType(hdr[0])
	if mt == 0 {
		return Frame{}, ErrInvalidType
	}
	flags := hdr[1]
	if flags&^FlagCompressed != 0 {
		return Frame{}, fmt.Errorf("%w: %#x", ErrInvalidFlags, flags)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: mt, Flags: flags, Payload: payload}, nil
}

// Codec writes and reads frames, compressing payloads of at least
// CompressThreshold bytes when LZ4 makes them smaller. A zero threshold
// disables compression on write; compressed frames are always accepted on read.
type Codec struct {
	CompressThreshold int
}

// Write frames payload, compressing it when that pays off.
func (c Codec) Write(w io.Writer, t MessageType, payload []byte) error {
	if len(payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}
	f := Frame{Type: t, Payload: payload}
	if c.CompressThreshold > 0 && len(payload) >= c.CompressThreshold {
		if out, ok := maybeCompress(payload); ok {
			f.Payload = out
			f.Flags |= FlagCompressed
		}
	}
	return WriteFrame(w, f)
}

// Read returns the next frame with its payload decompressed.
func (c Codec) Read(r io.Reader) (MessageType, []byte, error) {
	f, err := ReadFrame(r)
	if err != nil {
		return 0, nil, err
	}
	if f.Flags&FlagCompressed == 0 {
		return f.Type, f.Payload, nil
	}
	payload, err := Decompress(f.Payload, MaxFramePayload)
	if err != nil {
		return 0, nil, err
	}
	return f.Type, payload, nil
}
