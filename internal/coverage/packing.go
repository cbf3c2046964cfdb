package coverage

import (
	"bytes"
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Pack delta-encodes and LZ4-compresses a file's line hit counts for
// cheap in-memory retention across a run's lifetime, the same
// compress-a-sorted-uint32-slice trick the teacher used for its burndown
// matrices. Negative (non-instrumented) entries are clamped to 0 before
// encoding and restored via the parallel mask returned alongside.
func Pack(hits []int64) (compressed []byte, mask []bool) {
	if len(hits) == 0 {
		return nil, nil
	}

	u32 := make([]uint32, len(hits))
	mask = make([]bool, len(hits))

	for i, h := range hits {
		if h < 0 {
			mask[i] = true
			continue
		}

		u32[i] = uint32(h) //nolint:gosec // coverage hit counts never approach uint32 overflow
	}

	deltaEncode(u32)

	return compressUint32Slice(u32), mask
}

// Unpack reverses Pack, restoring -1 for entries mask marks as
// non-instrumented.
func Unpack(compressed []byte, mask []bool) []int64 {
	u32 := make([]uint32, len(mask))
	decompressUint32Slice(compressed, u32)
	deltaDecode(u32)

	hits := make([]int64, len(mask))

	for i, masked := range mask {
		if masked {
			hits[i] = -1
			continue
		}

		hits[i] = int64(u32[i])
	}

	return hits
}

func compressUint32Slice(data []uint32) []byte {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil || written == 0 {
		return nil
	}

	return compressed[:written]
}

func decompressUint32Slice(data []byte, result []uint32) {
	decompressed := make([]byte, len(result)*uint32ByteSize)

	if _, err := lz4.UncompressBlock(data, decompressed); err != nil {
		return
	}

	_ = binary.Read(bytes.NewReader(decompressed), binary.LittleEndian, result)
}

func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
