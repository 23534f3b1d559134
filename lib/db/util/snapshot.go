package util

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Snapshot Format
// --------------------------------------------------------------------------

/*
The snapshot format is shared by all engines so that a snapshot taken from one
engine can be loaded into another:

	magic "OKVSNAP\x00" | version (uint8)
	repeated: marker 0x01 | key length (uint32) | key | value length (uint32) | value
	marker 0x00 | record count (uint64)

All integers are little endian. The trailing count lets the reader detect
truncated snapshots without the writer knowing the number of records upfront.
*/

const (
	snapshotMagic   = "OKVSNAP\x00"
	snapshotVersion = 1

	markerRecord byte = 0x01
	markerEnd    byte = 0x00

	bufferSize = 1024 * 1024 // 1 MB
)

var ErrSnapshotCorrupt = errors.New("corrupt snapshot")

// SnapshotWriter streams records into the snapshot format.
// It is not safe for concurrent use.
type SnapshotWriter struct {
	bw    *bufio.Writer
	count uint64
	buf   [4]byte
}

// NewSnapshotWriter writes the snapshot header and returns a writer for the records
func NewSnapshotWriter(w io.Writer) (*SnapshotWriter, error) {
	bw := bufio.NewWriterSize(w, bufferSize)
	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return nil, err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return nil, err
	}
	return &SnapshotWriter{bw: bw}, nil
}

// Write appends one record
func (s *SnapshotWriter) Write(key string, value []byte) error {
	if err := s.bw.WriteByte(markerRecord); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.buf[:], uint32(len(key)))
	if _, err := s.bw.Write(s.buf[:]); err != nil {
		return err
	}
	if _, err := s.bw.WriteString(key); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.buf[:], uint32(len(value)))
	if _, err := s.bw.Write(s.buf[:]); err != nil {
		return err
	}
	if _, err := s.bw.Write(value); err != nil {
		return err
	}
	s.count++
	return nil
}

// Close writes the trailer and flushes the buffer. The underlying writer is not closed.
func (s *SnapshotWriter) Close() error {
	if err := s.bw.WriteByte(markerEnd); err != nil {
		return err
	}
	if err := binary.Write(s.bw, binary.LittleEndian, s.count); err != nil {
		return err
	}
	return s.bw.Flush()
}

// ReadSnapshot reads a snapshot and calls fn for every record in the order they were written.
// The value slice passed to fn is freshly allocated and may be retained.
func ReadSnapshot(r io.Reader, fn func(key string, value []byte) error) error {
	br := bufio.NewReaderSize(r, bufferSize)

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("%w: reading header: %w", ErrSnapshotCorrupt, err)
	}
	if string(magic) != snapshotMagic {
		return fmt.Errorf("%w: magic number mismatch", ErrSnapshotCorrupt)
	}

	version, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading version: %w", ErrSnapshotCorrupt, err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	var (
		count  uint64
		lenBuf [4]byte
	)
	for {
		marker, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: reading marker: %w", ErrSnapshotCorrupt, err)
		}

		if marker == markerEnd {
			var expected uint64
			if err := binary.Read(br, binary.LittleEndian, &expected); err != nil {
				return fmt.Errorf("%w: reading trailer: %w", ErrSnapshotCorrupt, err)
			}
			if expected != count {
				return fmt.Errorf("%w: expected %d records, read %d", ErrSnapshotCorrupt, expected, count)
			}
			return nil
		}
		if marker != markerRecord {
			return fmt.Errorf("%w: unknown marker 0x%02x", ErrSnapshotCorrupt, marker)
		}

		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return fmt.Errorf("%w: reading key length: %w", ErrSnapshotCorrupt, err)
		}
		key := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(br, key); err != nil {
			return fmt.Errorf("%w: reading key: %w", ErrSnapshotCorrupt, err)
		}

		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return fmt.Errorf("%w: reading value length: %w", ErrSnapshotCorrupt, err)
		}
		value := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(br, value); err != nil {
			return fmt.Errorf("%w: reading value: %w", ErrSnapshotCorrupt, err)
		}

		if err := fn(string(key), value); err != nil {
			return err
		}
		count++
	}
}
