package rbtree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const indexWidth = 4

// ErrDecompressedSize is returned when a hibernated column inflates to a
// length other than the one recorded at hibernation.
var ErrDecompressedSize = errors.New("decompressed size mismatch")

// PackBlock compresses one hibernated column into a single LZ4 block.
func PackBlock(column []byte) ([]byte, error) {
	block := make([]byte, lz4.CompressBlockBound(len(column)))

	n, err := lz4.CompressBlock(column, block, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress column: %w", err)
	}

	return block[:n], nil
}

// UnpackBlock inflates block, which must hold exactly size bytes.
func UnpackBlock(block []byte, size int) ([]byte, error) {
	column := make([]byte, size)
	if size == 0 {
		return column, nil
	}

	n, err := lz4.UncompressBlock(block, column)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress column: %w", err)
	}

	if n != size {
		return nil, fmt.Errorf("%w: %d instead of %d", ErrDecompressedSize, n, size)
	}

	return column, nil
}

// PackIndexes compresses a column of node indexes stored little endian.
func PackIndexes(indexes []uint32) ([]byte, error) {
	column := make([]byte, 0, len(indexes)*indexWidth)
	for _, idx := range indexes {
		column = binary.LittleEndian.AppendUint32(column, idx)
	}

	return PackBlock(column)
}

// UnpackIndexes fills indexes from a block written by PackIndexes. The
// slice length tells how many indexes the block holds.
func UnpackIndexes(block []byte, indexes []uint32) error {
	column, err := UnpackBlock(block, len(indexes)*indexWidth)
	if err != nil {
		return err
	}

	for i := range indexes {
		indexes[i] = binary.LittleEndian.Uint32(column[i*indexWidth:])
	}

	return nil
}

// DeltaEncode rewrites an ascending index list as gaps between neighbors.
// The free list is sorted before hibernation, so gaps are mostly 1.
func DeltaEncode(indexes []uint32) {
	for i := len(indexes) - 1; i > 0; i-- {
		indexes[i] -= indexes[i-1]
	}
}

// DeltaDecode undoes DeltaEncode in place.
func DeltaDecode(gaps []uint32) {
	for i := 1; i < len(gaps); i++ {
		gaps[i] += gaps[i-1]
	}
}
