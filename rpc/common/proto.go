package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Single key operations
	Key   string `json:"key,omitempty"`   // Used for: Set, Delete, Get, Has, KeysWithPrefix (the prefix)
	Value []byte `json:"value,omitempty"` // Used for: Set (request), Get (response), Info (response, json)

	// Multi key operations
	Keys   []string `json:"keys,omitempty"`   // Used for: Multi* (request), Keys, KeysWithPrefix (response)
	Values [][]byte `json:"values,omitempty"` // Used for: MultiSet (request), MultiGet (response)
	Oks    []bool   `json:"oks,omitempty"`    // Used for: MultiGet (response)

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Get, Has responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// withErr sets the error message of a response
func (m *Message) withErr(err error) *Message {
	if err != nil {
		m.Err = err.Error()
	}
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{MsgType: MsgTKVSet, Key: key, Value: value}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVSet}).withErr(err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{MsgType: MsgTKVDelete, Key: key}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVDelete}).withErr(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{MsgType: MsgTKVGet, Key: key}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return (&Message{MsgType: MsgTKVGet, Ok: ok, Value: value}).withErr(err)
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{MsgType: MsgTKVHas, Key: key}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	return (&Message{MsgType: MsgTKVHas, Ok: ok}).withErr(err)
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{MsgType: MsgTKVKeys}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, err error) *Message {
	return (&Message{MsgType: MsgTKVKeys, Keys: keys}).withErr(err)
}

// NewKeysWithPrefixRequest creates a new KeysWithPrefix request
func NewKeysWithPrefixRequest(prefix string) *Message {
	return &Message{MsgType: MsgTKVKeysWithPrefix, Key: prefix}
}

// NewKeysWithPrefixResponse creates a new KeysWithPrefix response
func NewKeysWithPrefixResponse(keys []string, err error) *Message {
	return (&Message{MsgType: MsgTKVKeysWithPrefix, Keys: keys}).withErr(err)
}

// NewMultiSetRequest creates a new MultiSet request, values[i] belongs to keys[i]
func NewMultiSetRequest(keys []string, values [][]byte) *Message {
	return &Message{MsgType: MsgTKVMultiSet, Keys: keys, Values: values}
}

// NewMultiSetResponse creates a new MultiSet response
func NewMultiSetResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVMultiSet}).withErr(err)
}

// NewMultiGetRequest creates a new MultiGet request
func NewMultiGetRequest(keys []string) *Message {
	return &Message{MsgType: MsgTKVMultiGet, Keys: keys}
}

// NewMultiGetResponse creates a new MultiGet response
func NewMultiGetResponse(values [][]byte, oks []bool, err error) *Message {
	return (&Message{MsgType: MsgTKVMultiGet, Values: values, Oks: oks}).withErr(err)
}

// NewMultiDeleteRequest creates a new MultiDelete request
func NewMultiDeleteRequest(keys []string) *Message {
	return &Message{MsgType: MsgTKVMultiDelete, Keys: keys}
}

// NewMultiDeleteResponse creates a new MultiDelete response
func NewMultiDeleteResponse(err error) *Message {
	return (&Message{MsgType: MsgTKVMultiDelete}).withErr(err)
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{MsgType: MsgTKVInfo}
}

// NewInfoResponse creates a new Info response, info is the json encoded db.DatabaseInfo
func NewInfoResponse(info []byte, err error) *Message {
	return (&Message{MsgType: MsgTKVInfo, Value: info}).withErr(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{MsgType: MsgTError, Err: err}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet    // Set a key-value pair
	MsgTKVDelete // Delete a key-value pair
	MsgTKVGet    // Get a value by key
	MsgTKVHas    // Check if a key exists
	MsgTKVKeys   // List all keys
	MsgTKVInfo   // Database information

	// IPrefixStore operations

	MsgTKVKeysWithPrefix // List the keys starting with a prefix

	// IBatchStore operations

	MsgTKVMultiSet    // Set several key-value pairs
	MsgTKVMultiGet    // Get several values
	MsgTKVMultiDelete // Delete several keys

	msgTEnd // first unused value
)

// messageTypeNames holds the wire names used by the json serializer
var messageTypeNames = map[MessageType]string{
	MsgTSuccess:          "success",
	MsgTError:            "error",
	MsgTKVSet:            "set",
	MsgTKVDelete:         "delete",
	MsgTKVGet:            "get",
	MsgTKVHas:            "has",
	MsgTKVKeys:           "keys",
	MsgTKVInfo:           "info",
	MsgTKVKeysWithPrefix: "keysWithPrefix",
	MsgTKVMultiSet:       "multiSet",
	MsgTKVMultiGet:       "multiGet",
	MsgTKVMultiDelete:    "multiDelete",
}

// AllMessageTypes returns every known message type except MsgTUnknown
func AllMessageTypes() []MessageType {
	out := make([]MessageType, 0, msgTEnd-1)
	for t := MsgTSuccess; t < msgTEnd; t++ {
		out = append(out, t)
	}
	return out
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}
