package gateway

import (
	"encoding/json"
	"fmt"
)

// Codec encodes gateway messages as plain JSON. It replaces Connect's
// protobuf JSON codec, which only accepts generated message types.
type Codec struct{}

// Name is the Connect codec name; it selects Content-Type application/json.
func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
