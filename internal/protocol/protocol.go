// Package protocol encodes outbound event envelopes and decodes inbound
// client messages. Two codecs share the same envelope shape: JSON over text
// frames (the default) and MessagePack over binary frames.
package protocol

import (
	"cube-arena/internal/game"

	"github.com/pkg/errors"
)

// Inbound event names.
const (
	EventMove  = "move"
	EventShoot = "shoot"
)

var (
	// ErrUnknownEvent is returned for an inbound event name the server does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformedPayload is returned when a frame or its data cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// MoveMessage is the data of a move event. Pointers tell a missing field
// apart from a zero one.
type MoveMessage struct {
	DX       *float64 `json:"dx" msgpack:"dx"`
	DY       *float64 `json:"dy" msgpack:"dy"`
	Rotation *float64 `json:"rotation" msgpack:"rotation"`
}

// Input converts a complete message to an engine input.
func (m MoveMessage) Input() (game.MoveInput, error) {
	if m.DX == nil || m.DY == nil || m.Rotation == nil {
		return game.MoveInput{}, errors.Wrap(ErrMalformedPayload, "move needs dx, dy and rotation")
	}
	return game.MoveInput{DX: *m.DX, DY: *m.DY, Rotation: *m.Rotation}, nil
}

// Message is a decoded inbound frame. Move is only set for move events.
type Message struct {
	Event string
	Move  game.MoveInput
}

// Codec turns envelopes into frames and back.
type Codec interface {
	Name() string
	// Binary reports whether frames go out as websocket binary messages.
	Binary() bool
	Encode(event string, data interface{}) ([]byte, error)
	Decode(frame []byte) (Message, error)
}

// ByName picks a codec from a query parameter value. Anything unrecognized
// gets JSON.
func ByName(name string) Codec {
	switch name {
	case "msgpack", "messagepack":
		return MsgpackCodec{}
	default:
		return JSONCodec{}
	}
}

// decodeData finishes decoding once the event name is known. unmarshal
// decodes the raw data field into a value.
func decodeData(event string, hasData bool, unmarshal func(v interface{}) error) (Message, error) {
	switch event {
	case EventShoot:
		return Message{Event: EventShoot}, nil
	case EventMove:
		if !hasData {
			return Message{}, errors.Wrap(ErrMalformedPayload, "move without data")
		}
		var m MoveMessage
		if err := unmarshal(&m); err != nil {
			return Message{}, errors.Wrapf(ErrMalformedPayload, "move data: %v", err)
		}
		in, err := m.Input()
		if err != nil {
			return Message{}, err
		}
		return Message{Event: EventMove, Move: in}, nil
	case "":
		return Message{}, errors.Wrap(ErrMalformedPayload, "missing event name")
	default:
		return Message{}, errors.Wrapf(ErrUnknownEvent, "%q", event)
	}
}
