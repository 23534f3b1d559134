package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	// headerSize is shard id, request id and payload length
	headerSize = 8 + 8 + 4

	// MaxFrameSize bounds the payload of a single frame
	MaxFrameSize = 64 << 20
)

// writeFrame writes one frame:
//
//	8 bytes shard id     (uint64, big endian)
//	8 bytes request id   (uint64, big endian)
//	4 bytes payload size (uint32, big endian)
//	N bytes payload
//
// Header and payload go out in one writev call.
func writeFrame(conn net.Conn, shardID, requestID uint64, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", len(payload), MaxFrameSize)
	}

	var header [headerSize]byte
	binary.BigEndian.PutUint64(header[0:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(payload)))

	bufs := net.Buffers{header[:], payload}
	_, err := bufs.WriteTo(conn)
	return err
}

// readFrame reads one frame. The payload is read into buf when it fits, otherwise a
// new slice is allocated. The returned payload may alias buf.
func readFrame(r io.Reader, buf []byte) (shardID, requestID uint64, payload []byte, err error) {
	var header [headerSize]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return 0, 0, nil, err
	}

	shardID = binary.BigEndian.Uint64(header[0:8])
	requestID = binary.BigEndian.Uint64(header[8:16])
	size := binary.BigEndian.Uint32(header[16:20])

	if size > MaxFrameSize {
		return shardID, requestID, nil, fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", size, MaxFrameSize)
	}
	if int(size) > cap(buf) {
		buf = make([]byte, size)
	}
	payload = buf[:size]
	if _, err = io.ReadFull(r, payload); err != nil {
		return shardID, requestID, nil, err
	}
	return shardID, requestID, payload, nil
}
