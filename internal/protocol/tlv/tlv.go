package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is id(2) + type(1) + length(4).
const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrTypeMismatch     = errors.New("tlv: field type mismatch")
	ErrInvalidLength    = errors.New("tlv: invalid value length")
)

const (
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint16, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

func U64(id uint16, v uint64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Field{ID: id, Type: TypeU64, Value: buf}
}

func Bool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

func (f Field) AsString() (string, error) {
	if f.Type != TypeString {
		return "", mismatch(f, TypeString)
	}
	return string(f.Value), nil
}

func (f Field) AsBytes() ([]byte, error) {
	if f.Type != TypeBytes {
		return nil, mismatch(f, TypeBytes)
	}
	buf := make([]byte, len(f.Value))
	copy(buf, f.Value)
	return buf, nil
}

func (f Field) AsU64() (uint64, error) {
	if f.Type != TypeU64 {
		return 0, mismatch(f, TypeU64)
	}
	if len(f.Value) != 8 {
		return 0, fmt.Errorf("%w: field %d u64 len=%d", ErrInvalidLength, f.ID, len(f.Value))
	}
	return binary.BigEndian.Uint64(f.Value), nil
}

func (f Field) AsBool() (bool, error) {
	if f.Type != TypeBool {
		return false, mismatch(f, TypeBool)
	}
	if len(f.Value) != 1 || f.Value[0] > 1 {
		return false, fmt.Errorf("%w: field %d bool", ErrInvalidLength, f.ID)
	}
	return f.Value[0] == 1, nil
}

func mismatch(f Field, want uint8) error {
	return fmt.Errorf("%w: field %d got %d want %d", ErrTypeMismatch, f.ID, f.Type, want)
}

func EncodeField(f Field) []byte {
	buf := make([]byte, HeaderLen+len(f.Value))
	binary.BigEndian.PutUint16(buf[0:2], f.ID)
	buf[2] = f.Type
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(f.Value)))
	copy(buf[7:], f.Value)
	return buf
}

func EncodeFields(fields []Field) []byte {
	size := 0
	for _, f := range fields {
		size += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	for _, f := range fields {
		out = append(out, EncodeField(f)...)
	}
	return out
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 4)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

// Get returns the first field with id.
func Get(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}
