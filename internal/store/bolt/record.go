package bolt

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/crc64nvme"
	"github.com/wolfeidau/nixcrypto/internal/store"
)

const (
	recordMagic = "NCR1"

	// 4 bytes magic + 4 bytes payload length + 8 bytes CRC64
	recordOverhead = 16
)

// encodeRecord frames a value for storage.
//
// Record format (total: 16 + payload_len bytes):
// - Magic (4 bytes) - "NCR1"
// - Length (4 bytes, uint32) - payload length
// - Payload (variable)
// - CRC64 (8 bytes, uint64) - CRC64-NVME checksum of magic, length and payload
func encodeRecord(payload []byte) []byte {
	buf := make([]byte, 8, recordOverhead+len(payload))
	copy(buf[0:4], recordMagic)
	//nolint:gosec // payload size is bounded by bbolt's value limit
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	buf = append(buf, payload...)

	return binary.LittleEndian.AppendUint64(buf, computeCRC64(buf))
}

// decodeRecord validates a framed value and returns a copy of its payload.
func decodeRecord(data []byte) ([]byte, error) {
	if len(data) < recordOverhead {
		return nil, fmt.Errorf("%w: record too short: %d bytes", store.ErrCodec, len(data))
	}

	if string(data[0:4]) != recordMagic {
		return nil, fmt.Errorf("%w: invalid record magic", store.ErrCodec)
	}

	length := binary.LittleEndian.Uint32(data[4:8])
	if int(length) != len(data)-recordOverhead {
		return nil, fmt.Errorf("%w: record length mismatch: header=%d actual=%d", store.ErrCodec, length, len(data)-recordOverhead)
	}

	body := data[:len(data)-8]
	storedCRC := binary.LittleEndian.Uint64(data[len(data)-8:])
	computedCRC := computeCRC64(body)
	if storedCRC != computedCRC {
		return nil, fmt.Errorf("%w: CRC64 mismatch: stored=%x computed=%x", store.ErrCodec, storedCRC, computedCRC)
	}

	return append([]byte(nil), body[8:]...), nil
}

// computeCRC64 computes CRC64-NVME checksum
func computeCRC64(data []byte) uint64 {
	h := crc64nvme.New()
	h.Write(data)
	return h.Sum64()
}
