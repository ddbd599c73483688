package schema

import (
	"fmt"

	"github.com/danmuck/clipbridge/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Message type IDs carried in frame.Header.MessageType.
const (
	MsgInvoke  uint32 = 1
	MsgResult  uint32 = 2
	MsgFailure uint32 = 3
)

// Field IDs shared by all bridge messages.
const (
	FieldRequestID uint16 = 1
	FieldCommand   uint16 = 2
	FieldArgs      uint16 = 3

	FieldPayload uint16 = 100

	FieldErrorKind    uint16 = 200
	FieldErrorMessage uint16 = 201

	FieldTimestampMS uint16 = 300
)

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

var requirements = map[uint32][]Requirement{
	MsgInvoke: {
		{FieldRequestID, tlv.TypeString},
		{FieldCommand, tlv.TypeString},
		{FieldArgs, tlv.TypeBytes},
	},
	MsgResult: {
		{FieldRequestID, tlv.TypeString},
	},
	MsgFailure: {
		{FieldRequestID, tlv.TypeString},
		{FieldErrorKind, tlv.TypeString},
		{FieldErrorMessage, tlv.TypeString},
	},
}

// Optional fields that must still carry the right type when present.
var optional = map[uint16]uint8{
	FieldPayload:     tlv.TypeBytes,
	FieldTimestampMS: tlv.TypeU64,
}

// Validate enforces required fields and field types for a message type.
// Unknown fields are ignored.
func Validate(messageType uint32, fields []tlv.Field) error {
	reqs, ok := requirements[messageType]
	if !ok {
		log.Debug().Uint32("message_type", messageType).Msg("schema: unknown message type")
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.Get(fields, req.ID)
		if !found {
			log.Debug().Uint32("message_type", messageType).Uint16("field", req.ID).Msg("schema: missing field")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema: type mismatch")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	for id, want := range optional {
		if f, found := tlv.Get(fields, id); found && f.Type != want {
			return ValidationError{MessageType: messageType, FieldID: id, Reason: "type mismatch"}
		}
	}
	return nil
}
