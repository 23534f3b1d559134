package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/oKV/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: MsgType (1 byte), flags (1 byte), then every field whose flag is set, in flag
// order. Strings and byte slices are prefixed with their length (uint32, big endian).
// Lists are prefixed with their element count. Inside Values a length of math.MaxUint32
// marks a nil element, so nil and empty values survive the round trip.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey    byte = 1 << 0
	hasValue  byte = 1 << 1
	hasKeys   byte = 1 << 2
	hasValues byte = 1 << 3
	hasOks    byte = 1 << 4
	hasOk     byte = 1 << 5
	hasErr    byte = 1 << 6
)

const nilLen = math.MaxUint32

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binWriter{buf: make([]byte, 2, b.sizeBytes(msg))}
	w.buf[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		w.bytes([]byte(msg.Key))
	}
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.Keys != nil {
		flags |= hasKeys
		w.uint32(uint32(len(msg.Keys)))
		for _, key := range msg.Keys {
			w.bytes([]byte(key))
		}
	}
	if msg.Values != nil {
		flags |= hasValues
		w.uint32(uint32(len(msg.Values)))
		for _, v := range msg.Values {
			if v == nil {
				w.uint32(nilLen)
				continue
			}
			w.bytes(v)
		}
	}
	if msg.Oks != nil {
		flags |= hasOks
		w.uint32(uint32(len(msg.Oks)))
		for _, ok := range msg.Oks {
			w.bool(ok)
		}
	}
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Err != "" {
		flags |= hasErr
		w.bytes([]byte(msg.Err))
	}

	// Set flags byte after knowing which fields are present
	w.buf[1] = flags
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := binReader{data: data, pos: 2}

	if flags&hasKey != 0 {
		key, err := r.bytes("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}

	if flags&hasValue != 0 {
		value, err := r.bytes("value")
		if err != nil {
			return err
		}
		msg.Value = value
	}

	if flags&hasKeys != 0 {
		n, err := r.count("keys", 4)
		if err != nil {
			return err
		}
		msg.Keys = make([]string, n)
		for i := range msg.Keys {
			key, err := r.bytes("keys")
			if err != nil {
				return err
			}
			msg.Keys[i] = string(key)
		}
	}

	if flags&hasValues != 0 {
		n, err := r.count("values", 4)
		if err != nil {
			return err
		}
		msg.Values = make([][]byte, n)
		for i := range msg.Values {
			if msg.Values[i], err = r.bytes("values"); err != nil {
				return err
			}
		}
	}

	if flags&hasOks != 0 {
		n, err := r.count("oks", 1)
		if err != nil {
			return err
		}
		msg.Oks = make([]bool, n)
		for i := range msg.Oks {
			msg.Oks[i] = r.data[r.pos] != 0
			r.pos++
		}
	}

	msg.Ok = flags&hasOk != 0

	if flags&hasErr != 0 {
		errMsg, err := r.bytes("error")
		if err != nil {
			return err
		}
		msg.Err = string(errMsg)
	}

	if r.pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-r.pos)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Keys != nil {
		size += 4
		for _, key := range msg.Keys {
			size += 4 + len(key)
		}
	}
	if msg.Values != nil {
		size += 4
		for _, v := range msg.Values {
			size += 4 + len(v)
		}
	}
	if msg.Oks != nil {
		size += 4 + len(msg.Oks)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	return size
}

// binWriter appends fields to buf
type binWriter struct {
	buf []byte
}

func (w *binWriter) uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *binWriter) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *binWriter) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// binReader reads fields from data, every method checks the remaining length
type binReader struct {
	data []byte
	pos  int
}

func (r *binReader) uint32(field string) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s length", field)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// count reads an element count and checks that the remaining data can hold that many
// elements of at least minSize bytes each
func (r *binReader) count(field string, minSize int) (int, error) {
	n, err := r.uint32(field)
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(len(r.data)-r.pos) {
		return 0, fmt.Errorf("%s count %d exceeds data length", field, n)
	}
	return int(n), nil
}

// bytes reads a length-prefixed byte slice. The result is a copy, nil for the nil marker.
func (r *binReader) bytes(field string) ([]byte, error) {
	n, err := r.uint32(field)
	if err != nil {
		return nil, err
	}
	if n == nilLen {
		return nil, nil
	}
	if uint64(r.pos)+uint64(n) > uint64(len(r.data)) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:])
	r.pos += int(n)
	return out, nil
}
