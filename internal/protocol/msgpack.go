package protocol

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec sends the same envelope as a MessagePack map over binary
// frames. Field names follow the json tags so both codecs agree on keys.
type MsgpackCodec struct{}

var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func (MsgpackCodec) Name() string { return "msgpack" }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(event string, data interface{}) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(Envelope{Event: event, Data: data}); err != nil {
		return nil, errors.Wrapf(err, "encode %s", event)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (MsgpackCodec) Decode(frame []byte) (Message, error) {
	var env struct {
		Event string             `msgpack:"event"`
		Data  msgpack.RawMessage `msgpack:"data"`
	}
	if err := msgpack.Unmarshal(frame, &env); err != nil {
		return Message{}, errors.Wrapf(ErrMalformedPayload, "msgpack frame: %v", err)
	}
	// 0xc0 is nil.
	hasData := len(env.Data) > 0 && !(len(env.Data) == 1 && env.Data[0] == 0xc0)
	return decodeData(env.Event, hasData, func(v interface{}) error {
		return msgpack.Unmarshal(env.Data, v)
	})
}
