package protocol

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// DecodeError reports a frame that could not be turned into a Message.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode control frame: %s: %v", e.Reason, e.Err)
	}
	return "decode control frame: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missing(field string) *DecodeError {
	return &DecodeError{Reason: "missing field " + field}
}

// Decode parses one frame. control_type and password are required on every
// frame; move frames also require movex and movey, keyboard frames require key.
// Absent fields are never defaulted.
func Decode(data []byte) (Message, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Message{}, &DecodeError{Reason: "malformed json", Err: err}
	}
	if f.ControlType == nil {
		return Message{}, missing("control_type")
	}
	if f.Password == nil {
		return Message{}, missing("password")
	}

	msg := Message{Credential: *f.Password}
	switch ControlType(*f.ControlType) {
	case TypeMove:
		if f.MoveX == nil {
			return Message{}, missing("movex")
		}
		if f.MoveY == nil {
			return Message{}, missing("movey")
		}
		msg.Command = Move{DX: *f.MoveX, DY: *f.MoveY}
	case TypeClick:
		msg.Command = Click{}
	case TypeFullscreen:
		msg.Command = Fullscreen{}
	case TypeKeyboard:
		if f.Key == nil {
			return Message{}, missing("key")
		}
		msg.Command = KeyPress{Label: *f.Key}
	default:
		msg.Command = Unknown{Type: *f.ControlType}
	}
	return msg, nil
}

// Encode renders a command as a frame; the control page and tests use the
// same shape.
func Encode(cmd Command, credential string) ([]byte, error) {
	var (
		ct   ControlType
		x, y float64
		key  string
	)
	switch c := cmd.(type) {
	case Move:
		ct, x, y = TypeMove, c.DX, c.DY
	case Click:
		ct = TypeClick
	case Fullscreen:
		ct = TypeFullscreen
	case KeyPress:
		ct, key = TypeKeyboard, c.Label
	case Unknown:
		ct = ControlType(c.Type)
	default:
		return nil, eris.Errorf("encode: unsupported command %T", cmd)
	}
	s := string(ct)
	return json.Marshal(Frame{
		ControlType: &s,
		Password:    &credential,
		MoveX:       &x,
		MoveY:       &y,
		Key:         &key,
	})
}
