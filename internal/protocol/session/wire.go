package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/clipbridge/internal/protocol/frame"
	"github.com/danmuck/clipbridge/internal/protocol/schema"
	"github.com/danmuck/clipbridge/internal/protocol/tlv"
)

var emptyArgs = json.RawMessage(`{}`)

// Invoke is one named command request sent invoker->host.
type Invoke struct {
	RequestID string
	Command   string
	Args      json.RawMessage
	AuthToken string
}

func (i Invoke) Validate() error {
	if strings.TrimSpace(i.RequestID) == "" {
		return fmt.Errorf("invoke missing request_id")
	}
	if strings.TrimSpace(i.Command) == "" {
		return fmt.Errorf("invoke missing command")
	}
	if len(i.Args) > 0 && !json.Valid(i.Args) {
		return fmt.Errorf("invoke args are not valid json")
	}
	return nil
}

// Result is the host->invoker success response. Payload is empty for commands without output.
type Result struct {
	RequestID   string
	Payload     json.RawMessage
	TimestampMS uint64
}

func (r Result) Validate() error {
	if strings.TrimSpace(r.RequestID) == "" {
		return fmt.Errorf("result missing request_id")
	}
	return nil
}

// Failure is the host->invoker error response.
type Failure struct {
	RequestID   string
	Kind        string
	Message     string
	TimestampMS uint64
}

func (f Failure) Validate() error {
	if strings.TrimSpace(f.RequestID) == "" {
		return fmt.Errorf("failure missing request_id")
	}
	if strings.TrimSpace(f.Kind) == "" {
		return fmt.Errorf("failure missing kind")
	}
	return nil
}

func EncodeInvokeFrame(messageID uint64, inv Invoke) ([]byte, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	args := inv.Args
	if len(args) == 0 {
		args = emptyArgs
	}
	fields := []tlv.Field{
		tlv.String(schema.FieldRequestID, inv.RequestID),
		tlv.String(schema.FieldCommand, inv.Command),
		tlv.Bytes(schema.FieldArgs, args),
	}
	return encode(messageID, schema.MsgInvoke, 0, []byte(inv.AuthToken), fields)
}

func DecodeInvokeFrame(f frame.Frame) (Invoke, error) {
	fields, err := decode(f, schema.MsgInvoke)
	if err != nil {
		return Invoke{}, err
	}
	inv := Invoke{
		RequestID: getString(fields, schema.FieldRequestID),
		Command:   getString(fields, schema.FieldCommand),
		Args:      json.RawMessage(getBytes(fields, schema.FieldArgs)),
		AuthToken: string(f.Auth),
	}
	if err := inv.Validate(); err != nil {
		return Invoke{}, err
	}
	return inv, nil
}

func EncodeResultFrame(messageID uint64, res Result) ([]byte, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	fields := []tlv.Field{tlv.String(schema.FieldRequestID, res.RequestID)}
	if len(res.Payload) > 0 {
		fields = append(fields, tlv.Bytes(schema.FieldPayload, res.Payload))
	}
	if res.TimestampMS != 0 {
		fields = append(fields, tlv.U64(schema.FieldTimestampMS, res.TimestampMS))
	}
	return encode(messageID, schema.MsgResult, frame.FlagIsResponse, nil, fields)
}

func DecodeResultFrame(f frame.Frame) (Result, error) {
	fields, err := decode(f, schema.MsgResult)
	if err != nil {
		return Result{}, err
	}
	res := Result{RequestID: getString(fields, schema.FieldRequestID)}
	if p := getBytes(fields, schema.FieldPayload); len(p) > 0 {
		res.Payload = json.RawMessage(p)
	}
	if ts, ok := tlv.Get(fields, schema.FieldTimestampMS); ok {
		v, err := ts.AsU64()
		if err != nil {
			return Result{}, err
		}
		res.TimestampMS = v
	}
	return res, nil
}

func EncodeFailureFrame(messageID uint64, fail Failure) ([]byte, error) {
	if err := fail.Validate(); err != nil {
		return nil, err
	}
	fields := []tlv.Field{
		tlv.String(schema.FieldRequestID, fail.RequestID),
		tlv.String(schema.FieldErrorKind, fail.Kind),
		tlv.String(schema.FieldErrorMessage, fail.Message),
	}
	if fail.TimestampMS != 0 {
		fields = append(fields, tlv.U64(schema.FieldTimestampMS, fail.TimestampMS))
	}
	return encode(messageID, schema.MsgFailure, frame.FlagIsResponse|frame.FlagIsError, nil, fields)
}

func DecodeFailureFrame(f frame.Frame) (Failure, error) {
	fields, err := decode(f, schema.MsgFailure)
	if err != nil {
		return Failure{}, err
	}
	fail := Failure{
		RequestID: getString(fields, schema.FieldRequestID),
		Kind:      getString(fields, schema.FieldErrorKind),
		Message:   getString(fields, schema.FieldErrorMessage),
	}
	if ts, ok := tlv.Get(fields, schema.FieldTimestampMS); ok {
		v, err := ts.AsU64()
		if err != nil {
			return Failure{}, err
		}
		fail.TimestampMS = v
	}
	return fail, nil
}

// ReadFrame reads one bridge frame from r.
func ReadFrame(r io.Reader, limits frame.Limits) (frame.Frame, error) {
	return frame.ReadFrame(r, limits)
}

func encode(messageID uint64, messageType uint32, flags uint32, auth []byte, fields []tlv.Field) ([]byte, error) {
	if err := schema.Validate(messageType, fields); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := frame.WriteFrame(&buf, frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: messageType,
			Flags:       flags,
		},
		Auth:    auth,
		Payload: tlv.EncodeFields(fields),
	}, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(f frame.Frame, messageType uint32) ([]tlv.Field, error) {
	if f.Header.MessageType != messageType {
		return nil, fmt.Errorf("session: unexpected message_type=%d want=%d", f.Header.MessageType, messageType)
	}
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(messageType, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func getString(fields []tlv.Field, id uint16) string {
	f, ok := tlv.Get(fields, id)
	if !ok {
		return ""
	}
	return string(f.Value)
}

func getBytes(fields []tlv.Field, id uint16) []byte {
	f, ok := tlv.Get(fields, id)
	if !ok {
		return nil
	}
	return f.Value
}
