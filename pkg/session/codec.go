package session

import (
	"encoding/json"
	"errors"
)

// Codec turns a session into bytes and back.
type Codec interface {
	Marshal(s PersistableSession) ([]byte, error)
	Unmarshal(data []byte, into PersistableSession) error
}

// JSONCodec encodes sessions with encoding/json. Sessions must be JSON
// (un)marshalable, as Session is.
type JSONCodec struct{}

func (JSONCodec) Marshal(s PersistableSession) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Join(ErrSerialization, err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, into PersistableSession) error {
	if err := json.Unmarshal(data, into); err != nil {
		return errors.Join(ErrSerialization, err)
	}
	return nil
}
