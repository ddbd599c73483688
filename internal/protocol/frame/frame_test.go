package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/clipbridge/internal/protocol/tlv"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	payload := tlv.EncodeFields([]tlv.Field{tlv.String(1, "req-1")})
	in := Frame{
		Header:  Header{MessageID: 42, MessageType: 1},
		Auth:    []byte("token"),
		Payload: payload,
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.Version != Version {
		t.Fatalf("expected stamped magic/version, got %+v", out.Header)
	}
	if out.Header.MessageType != 1 || out.Header.MessageID != 42 {
		t.Fatalf("header mismatch: %+v", out.Header)
	}
	if out.Header.Flags&FlagHasAuth == 0 || string(out.Auth) != "token" {
		t.Fatalf("auth mismatch: flags=%d auth=%q", out.Header.Flags, out.Auth)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestWriteFrameClearsAuthFlagWithoutAuth(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{Header: Header{MessageID: 1, MessageType: 2, Flags: FlagHasAuth | FlagIsResponse}}
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Flags != FlagIsResponse {
		t.Fatalf("unexpected flags: %d", out.Header.Flags)
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameBadMagic(t *testing.T) {
	h := Header{Magic: 0xDEADBEEF, Version: Version, HeaderLen: FixedHeaderLen}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestReadFrameHeaderLenTooSmall(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, HeaderLen: 8, MessageID: 1, MessageType: 1}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrHeaderLenTooSmall) {
		t.Fatalf("expected ErrHeaderLenTooSmall, got %v", err)
	}
}

func TestReadFrameAuthFlagWithoutAuthBytes(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, HeaderLen: FixedHeaderLen, MessageID: 1, MessageType: 1, Flags: FlagHasAuth}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrHeaderLenMismatch) {
		t.Fatalf("expected ErrHeaderLenMismatch, got %v", err)
	}
}

func TestPayloadLimitEnforcedBothWays(t *testing.T) {
	limits := Limits{MaxAuthBytes: 8, MaxPayloadBytes: 4}
	var buf bytes.Buffer
	err := WriteFrame(&buf, Frame{Payload: []byte("too long")}, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on write, got %v", err)
	}

	h := Header{Magic: Magic, Version: Version, HeaderLen: FixedHeaderLen, PayloadLen: 5}
	_, err = ReadFrame(bytes.NewReader(EncodeHeader(h)), limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on read, got %v", err)
	}
}
