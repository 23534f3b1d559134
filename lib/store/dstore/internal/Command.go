package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/oKV/lib/db"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTSet        CommandType = iota // Insert or update one entry.
	CommandTDelete                        // Delete one entry.
	CommandTSetMany                       // Insert or update several entries.
	CommandTDeleteMany                    // Delete several entries.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTSet:
		return "Set"
	case CommandTDelete:
		return "Delete"
	case CommandTSetMany:
		return "SetMany"
	case CommandTDeleteMany:
		return "DeleteMany"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the corresponding db.Feature.
// This can be used for checking if the database supports a certain operation.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTSet, CommandTSetMany:
		return db.FeatureSet, nil
	case CommandTDelete, CommandTDeleteMany:
		return db.FeatureDelete, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// hasValues reports whether the command carries values next to its keys
func (ct CommandType) hasValues() bool {
	return ct == CommandTSet || ct == CommandTSetMany
}

// Command represents a command to be executed by the state machine (a single entry in the raft log).
// Single key commands carry exactly one entry. Delete commands ignore the values.
type Command struct {
	Type    CommandType
	Entries []db.KeyValue
}

// headerSize is the size of type and entry count
const headerSize = 1 + 4

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	size := headerSize
	for _, e := range command.Entries {
		size += 4 + len(e.Key) // KeyLen + Key
		if command.Type.hasValues() {
			size += 4 + len(e.Value) // ValueLen + Value
		}
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 4 bytes for the number of entries (big endian),
// then per entry 4 bytes key length, N bytes key and, for set commands,
// 4 bytes value length and N bytes value.
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint32(result[1:5], uint32(len(command.Entries)))

	pos := headerSize
	for _, e := range command.Entries {
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(e.Key)))
		pos += 4
		pos += copy(result[pos:], e.Key)

		if command.Type.hasValues() {
			binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(e.Value)))
			pos += 4
			pos += copy(result[pos:], e.Value)
		}
	}

	return result
}

// Deserialize extracts all Command fields from a byte array.
// Values are copied, the command does not alias data.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	count := binary.BigEndian.Uint32(data[1:5])

	// every entry needs at least its key length
	if uint64(count)*4 > uint64(len(data)-headerSize) {
		return fmt.Errorf("entry count %d exceeds data length", count)
	}

	readChunk := func(pos int, what string) ([]byte, int, error) {
		if len(data) < pos+4 {
			return nil, pos, fmt.Errorf("data too short for %s length", what)
		}
		n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if len(data) < pos+n {
			return nil, pos, fmt.Errorf("data too short for %s of length %d", what, n)
		}
		return data[pos : pos+n], pos + n, nil
	}

	command.Entries = make([]db.KeyValue, count)
	pos := headerSize
	for i := range command.Entries {
		key, next, err := readChunk(pos, "key")
		if err != nil {
			return err
		}
		pos = next
		command.Entries[i].Key = string(key)

		if command.Type.hasValues() {
			value, next, err := readChunk(pos, "value")
			if err != nil {
				return err
			}
			pos = next
			command.Entries[i].Value = append([]byte{}, value...)
		}
	}

	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after command", len(data)-pos)
	}
	return nil
}

// Keys returns the keys of all entries
func (command *Command) Keys() []string {
	keys := make([]string, len(command.Entries))
	for i, e := range command.Entries {
		keys[i] = e.Key
	}
	return keys
}
