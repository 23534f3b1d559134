// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the distributed state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
//   - Command System: Write operations (Set, Delete, SetMany, DeleteMany) are serialized
//     and proposed to the RAFT cluster, then executed on the state machine. A command
//     carries one or more entries, so a batch is one log entry and is applied atomically
//     on every replica.
//
//   - Query System: Read operations (Get, Has, Keys, MultiGet, GetDBInfo) are executed
//     locally on the state machine and are never serialized.
//
// Command Format:
//
//	- 1 byte: Command type
//	- 4 bytes: Entry count (uint32, big endian)
//	- per entry:
//	  - 4 bytes key length (uint32, big endian) and the key bytes
//	  - for Set and SetMany: 4 bytes value length and the value bytes
//
// Deserialize copies values out of the input buffer and rejects trailing bytes.
package internal
