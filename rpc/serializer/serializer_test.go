package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/oKV/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled.
// None of them holds empty slices: json and gob do not keep empty apart from nil.
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Set request
		{
			MsgType: common.MsgTKVSet,
			Key:     "test-key",
			Value:   []byte("test-value"),
		},

		// Get response
		{
			MsgType: common.MsgTKVGet,
			Value:   []byte("test-value"),
			Ok:      true,
		},

		// Keys response
		{
			MsgType: common.MsgTKVKeysWithPrefix,
			Key:     "users!",
			Keys:    []string{"users!a", "users!b"},
		},

		// MultiSet request
		{
			MsgType: common.MsgTKVMultiSet,
			Keys:    []string{"a", "b", "c"},
			Values:  [][]byte{[]byte("1"), {0, 1, 2, 0xff}, []byte("3")},
		},

		// MultiGet response
		{
			MsgType: common.MsgTKVMultiGet,
			Values:  [][]byte{[]byte("1"), []byte("x")},
			Oks:     []bool{true, false},
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for _, msgType := range common.AllMessageTypes() {
				if msgType.String() == "unknown" {
					t.Errorf("Message type %d has no name", msgType)
				}

				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinaryDeserializeResetsMessage checks that fields of a reused message do not leak into the next one
func TestBinaryDeserializeResetsMessage(t *testing.T) {
	serializer := NewBinarySerializer()

	first, err := serializer.Serialize(common.Message{
		MsgType: common.MsgTKVMultiGet,
		Values:  [][]byte{[]byte("1")},
		Oks:     []bool{true},
		Ok:      true,
	})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	second, err := serializer.Serialize(common.Message{MsgType: common.MsgTKVHas, Key: "k"})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	var msg common.Message
	if err := serializer.Deserialize(first, &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if err := serializer.Deserialize(second, &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	want := common.Message{MsgType: common.MsgTKVHas, Key: "k"}
	if !reflect.DeepEqual(want, msg) {
		t.Errorf("Unexpected message after second deserialize: %+v", msg)
	}
}

// TestBinaryKeepsNilAndEmpty checks that the binary format tells nil and empty slices apart
func TestBinaryKeepsNilAndEmpty(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{name: "Empty message", msg: common.Message{}},
		{name: "Empty value", msg: common.Message{MsgType: common.MsgTKVSet, Key: "test", Value: []byte{}}},
		{name: "Empty key list", msg: common.Message{MsgType: common.MsgTKVKeys, Keys: []string{}}},
		{name: "Empty keys in list", msg: common.Message{MsgType: common.MsgTKVMultiDelete, Keys: []string{"", "a", ""}}},
		{
			name: "Nil and empty values",
			msg: common.Message{
				MsgType: common.MsgTKVMultiGet,
				Values:  [][]byte{nil, {}, []byte("v"), nil},
				Oks:     []bool{false, true, true, false},
			},
		},
		{name: "Ok without value", msg: common.Message{MsgType: common.MsgTKVGet, Ok: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %#v\nResult: %#v", tc.msg, result)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{name: "Empty data", data: []byte{}, expectError: true},
		{name: "Too short header", data: []byte{1}, expectError: true},
		{name: "Valid header only", data: []byte{1, 0}, expectError: false},
		{name: "Ok flag only", data: []byte{1, hasOk}, expectError: false},
		{
			name:        "Invalid length for key",
			data:        []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, hasValue, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Key count too large",
			data:        []byte{1, hasKeys, 0xff, 0xff, 0xff, 0xff},
			expectError: true,
		},
		{
			name:        "Oks count too large",
			data:        []byte{1, hasOks, 0, 0, 0, 3, 1, 0},
			expectError: true,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{1, 0, 42},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "binary", "json", "gob"} {
		if s, ok := ByName(name); !ok || s == nil {
			t.Errorf("ByName(%q) returned no serializer", name)
		}
	}
	if _, ok := ByName("xml"); ok {
		t.Errorf("ByName(\"xml\") should fail")
	}
}
