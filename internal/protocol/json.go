package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONCodec sends {"event":...,"data":...} text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(event string, data interface{}) ([]byte, error) {
	out, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", event)
	}
	return out, nil
}

func (JSONCodec) Decode(frame []byte) (Message, error) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message{}, errors.Wrapf(ErrMalformedPayload, "json frame: %v", err)
	}
	hasData := len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null"))
	return decodeData(env.Event, hasData, func(v interface{}) error {
		return json.Unmarshal(env.Data, v)
	})
}
