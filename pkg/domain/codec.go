package domain

import (
	"encoding/json"
	"fmt"
)

// Codec translates opaque collection elements to and from their serialized
// form. Stores and archives never inspect elements directly; they go through
// a codec supplied by the caller.
type Codec interface {
	Encode(element any) (json.RawMessage, error)
	Decode(data json.RawMessage) (any, error)
}

// jsonEnvelope tags an encoded element with its kind so decoding can restore
// the concrete type.
type jsonEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

const (
	kindNeuron   = "neuron"
	kindDotprops = "dotprops"
)

// JSONCodec encodes the built-in element kinds (Neuron, Dotprops) as tagged
// JSON envelopes.
type JSONCodec struct{}

// Encode serializes a Neuron or Dotprops element. Other kinds are rejected.
func (JSONCodec) Encode(element any) (json.RawMessage, error) {
	var kind string
	switch element.(type) {
	case Neuron, *Neuron:
		kind = kindNeuron
	case Dotprops, *Dotprops:
		kind = kindDotprops
	default:
		return nil, fmt.Errorf("encode element: unsupported kind %T", element)
	}
	data, err := json.Marshal(element)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return json.Marshal(jsonEnvelope{Kind: kind, Data: data})
}

// Decode restores a previously encoded element to its concrete type.
func (JSONCodec) Decode(data json.RawMessage) (any, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode element envelope: %w", err)
	}
	switch env.Kind {
	case kindNeuron:
		var n Neuron
		if err := json.Unmarshal(env.Data, &n); err != nil {
			return nil, fmt.Errorf("decode neuron: %w", err)
		}
		return n, nil
	case kindDotprops:
		var d Dotprops
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("decode dotprops: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("decode element: unknown kind %q", env.Kind)
	}
}
