package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ----- tags and alphabets -----

const (
	// BufferTag marks values holding binary data in d64 encoding
	BufferTag = "Buff:"

	// d64Alphabet is the base64 alphabet sorted by ASCII. Encoded strings sort like the bytes they encode.
	d64Alphabet = ".0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

	// envelopeType is the storetype of structured values
	envelopeType = "json"
)

var (
	d64 = base64.NewEncoding(d64Alphabet).WithPadding(base64.NoPadding)

	// envelopeHead is how every encoded structured value starts
	envelopeHead = []byte(`{"storetype":"json","data"`)

	ErrInvalidValue = errors.New("codec: invalid value")
)

// ----- Value -----

// Kind is the type tag of a Value
type Kind uint8

const (
	KindInvalid    Kind = iota // zero Value, never stored
	KindBytes                  // arbitrary binary data
	KindText                   // a string stored as is
	KindStructured             // a JSON document stored in an envelope
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	default:
		return "invalid"
	}
}

// Value is a tagged union of the payloads an ordered store can hold.
// The zero Value is invalid and rejected by every write path.
type Value struct {
	kind Kind
	data []byte // Bytes payload or raw JSON of a structured value
	text string
}

// Bytes returns a binary value holding a copy of b. A nil b is an empty value.
func Bytes(b []byte) Value {
	data := make([]byte, len(b))
	copy(data, b)
	return Value{kind: KindBytes, data: data}
}

// Text returns a text value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// JSON marshals v into a structured value
func JSON(v any) (Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return Value{kind: KindStructured, data: raw}, nil
}

// RawJSON returns a structured value holding raw. raw must be valid JSON.
func RawJSON(raw json.RawMessage) (Value, error) {
	if !json.Valid(raw) {
		return Value{}, fmt.Errorf("%w: malformed JSON", ErrInvalidValue)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return Value{kind: KindStructured, data: buf.Bytes()}, nil
}

// Kind returns the type tag of v
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Bytes returns the payload as bytes: the binary data, the text or the raw JSON document.
// The returned slice is a copy.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindText:
		return []byte(v.text)
	case KindBytes, KindStructured:
		out := make([]byte, len(v.data))
		copy(out, v.data)
		return out
	default:
		return nil
	}
}

// String returns the payload as a string (see Bytes)
func (v Value) String() string {
	if v.kind == KindText {
		return v.text
	}
	return string(v.data)
}

// Unmarshal decodes a structured value into out
func (v Value) Unmarshal(out any) error {
	if v.kind != KindStructured {
		return fmt.Errorf("%w: %s value is not structured", ErrInvalidValue, v.kind)
	}
	return json.Unmarshal(v.data, out)
}

// Equal reports whether both values have the same kind and payload
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.text == other.text && bytes.Equal(v.data, other.data)
}

// ----- encoding -----

type envelope struct {
	StoreType string          `json:"storetype"`
	Data      json.RawMessage `json:"data"`
}

// Encode converts v into the string stored in the backing primitive.
// Binary data is tagged and d64 encoded, text is stored unchanged and structured
// values are wrapped in a JSON envelope.
func Encode(v Value) (string, error) {
	switch v.kind {
	case KindBytes:
		return BufferTag + d64.EncodeToString(v.data), nil
	case KindText:
		return v.text, nil
	case KindStructured:
		raw, err := json.Marshal(envelope{StoreType: envelopeType, Data: v.data})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return string(raw), nil
	default:
		return "", ErrInvalidValue
	}
}

// Decode converts a stored string back into a Value. It never fails: strings that carry
// a known tag but do not decode are returned as text.
//
// Text starting with a tag or looking like an envelope is indistinguishable from an
// encoded value and decodes as such.
func Decode(s string) Value {
	for _, dec := range decoders {
		if rest, ok := strings.CutPrefix(s, dec.tag); ok {
			if b, err := dec.decode(rest); err == nil {
				return Value{kind: KindBytes, data: b}
			}
			return Text(s)
		}
	}

	if raw, ok := unwrapEnvelope(s); ok {
		return Value{kind: KindStructured, data: raw}
	}
	return Text(s)
}

// decodeD64 decodes the payload of a BufferTag value
func decodeD64(s string) ([]byte, error) {
	return d64.DecodeString(s)
}

// unwrapEnvelope returns the data of a JSON envelope
func unwrapEnvelope(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(s, string(envelopeHead)) {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	if env.StoreType != envelopeType || env.Data == nil {
		return nil, false
	}
	return env.Data, true
}
