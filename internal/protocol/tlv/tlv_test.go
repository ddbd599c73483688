package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	in := []Field{
		String(1, "req-1"),
		Bytes(9999, []byte{0xAA, 0xBB}), // unknown field id
		U64(7, 1760000000000),
		Bool(8, true),
	}
	out, err := DecodeFields(EncodeFields(in))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(out))
	}
	if out[1].ID != 9999 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field mismatch: %+v", out[1])
	}
	ts, err := out[2].AsU64()
	if err != nil || ts != 1760000000000 {
		t.Fatalf("u64 mismatch: %d err=%v", ts, err)
	}
	ok, err := out[3].AsBool()
	if err != nil || !ok {
		t.Fatalf("bool mismatch: %v err=%v", ok, err)
	}
}

func TestEmptyStringFieldSurvives(t *testing.T) {
	out, err := DecodeFields(EncodeFields([]Field{String(2, "")}))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	f, ok := Get(out, 2)
	if !ok {
		t.Fatalf("expected empty string field to be present")
	}
	s, err := f.AsString()
	if err != nil || s != "" {
		t.Fatalf("unexpected value %q err=%v", s, err)
	}
}

func TestDecodeFieldsShortHeader(t *testing.T) {
	_, err := DecodeFields([]byte{0x00, 0x01, TypeString})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsShortValue(t *testing.T) {
	b := EncodeField(String(1, "abcdef"))
	_, err := DecodeFields(b[:len(b)-2])
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestTypedAccessorMismatch(t *testing.T) {
	if _, err := String(1, "x").AsU64(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := (Field{ID: 1, Type: TypeBool, Value: []byte{2}}).AsBool(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}
