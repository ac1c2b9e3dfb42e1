package rbtree

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/safeconv"
)

// ErrIncompleteRead is returned when a read does not return the expected number of bytes.
var ErrIncompleteRead = errors.New("incomplete read")

// ErrCorruptArena is returned by Boot when a hibernated link or free slot
// points outside the arena.
var ErrCorruptArena = errors.New("corrupt arena")

// linkColumns are the uint32 columns split out of the node storage.
var linkColumns = [...]int{columnParent, columnLeft, columnRight, columnColor}

// Hibernate compresses the allocated memory. Arenas smaller than
// HibernationThreshold nodes are left as they are.
func (allocator *Allocator[K]) Hibernate(codec KeyCodec[K]) error {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return nil
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil
		allocator.gaps = nil

		return nil
	}

	buffers := [hibernatedColumns][]uint32{}

	for _, column := range linkColumns {
		buffers[column] = make([]uint32, len(allocator.storage))
	}

	var keys []byte

	// We deinterleave to achieve a better compression ratio.
	for idx, nd := range allocator.storage {
		buffers[columnParent][idx] = nd.parent
		buffers[columnLeft][idx] = nd.left
		buffers[columnRight][idx] = nd.right

		if nd.color == Black {
			buffers[columnColor][idx] = 1
		}

		keys = codec.AppendKey(keys, nd.key)
	}

	allocator.hibernatedKeysLen = len(keys)

	var errs [hibernatedColumns]error

	wg := &sync.WaitGroup{}
	wg.Add(len(linkColumns) + 2)

	for _, column := range linkColumns {
		go func(col int) {
			defer wg.Done()

			allocator.hibernatedData[col], errs[col] = PackIndexes(buffers[col])
		}(column)
	}

	go func() {
		defer wg.Done()

		allocator.hibernatedData[columnKeys], errs[columnKeys] = PackBlock(keys)
	}()

	// Gaps are sorted and delta encoded: recycled indices cluster.
	go func() {
		defer wg.Done()

		allocator.hibernatedGapsLen = len(allocator.gaps)
		if len(allocator.gaps) == 0 {
			return
		}

		gapsBuffer := make([]uint32, 0, len(allocator.gaps))
		for key := range allocator.gaps {
			gapsBuffer = append(gapsBuffer, key)
		}

		slices.Sort(gapsBuffer)
		DeltaEncode(gapsBuffer)

		allocator.hibernatedData[columnGaps], errs[columnGaps] = PackIndexes(gapsBuffer)
	}()

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		allocator.hibernatedStorageLen = 0
		allocator.hibernatedGapsLen = 0
		allocator.hibernatedKeysLen = 0
		allocator.hibernatedData = [hibernatedColumns][]byte{}

		return fmt.Errorf("hibernate: %w", err)
	}

	allocator.storage = nil
	allocator.gaps = nil

	return nil
}

// Boot performs the opposite of Hibernate() - decompresses and restores the allocated memory.
func (allocator *Allocator[K]) Boot(codec KeyCodec[K]) error {
	if allocator.storage == nil && allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node[K]{}
		allocator.gaps = map[uint32]bool{}

		return nil
	}

	if allocator.hibernatedStorageLen == 0 {
		// Not hibernated.
		return nil
	}

	if allocator.hibernatedData[columnParent] == nil {
		panic("cannot boot a serialized Allocator")
	}

	buffers := [hibernatedColumns][]uint32{}

	var keys []byte

	var gaps []uint32

	var errs [hibernatedColumns]error

	wg := &sync.WaitGroup{}
	wg.Add(len(linkColumns) + 2)

	for _, column := range linkColumns {
		go func(col int) {
			defer wg.Done()

			buffers[col] = make([]uint32, allocator.hibernatedStorageLen)
			errs[col] = UnpackIndexes(allocator.hibernatedData[col], buffers[col])
		}(column)
	}

	go func() {
		defer wg.Done()

		keys, errs[columnKeys] = UnpackBlock(allocator.hibernatedData[columnKeys], allocator.hibernatedKeysLen)
	}()

	go func() {
		defer wg.Done()

		gaps = make([]uint32, allocator.hibernatedGapsLen)
		if len(gaps) == 0 {
			return
		}

		errs[columnGaps] = UnpackIndexes(allocator.hibernatedData[columnGaps], gaps)
		DeltaDecode(gaps)
	}()

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	err = checkLinks(buffers, gaps, allocator.hibernatedStorageLen)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	storage := make([]node[K], allocator.hibernatedStorageLen, capSize)

	offset := 0

	for idx := range storage {
		key, read, readErr := codec.ReadKey(keys[offset:])
		if readErr != nil {
			return fmt.Errorf("boot: node %d: %w", idx, readErr)
		}

		offset += read

		nd := &storage[idx]
		nd.key = key
		nd.parent = buffers[columnParent][idx]
		nd.left = buffers[columnLeft][idx]
		nd.right = buffers[columnRight][idx]
		nd.color = buffers[columnColor][idx] > 0
	}

	allocator.gaps = make(map[uint32]bool, len(gaps))
	for _, gap := range gaps {
		allocator.gaps[gap] = true
	}

	allocator.storage = storage
	allocator.hibernatedData = [hibernatedColumns][]byte{}
	allocator.hibernatedStorageLen = 0
	allocator.hibernatedGapsLen = 0
	allocator.hibernatedKeysLen = 0

	return nil
}

var linkColumnNames = map[int]string{columnParent: "parent", columnLeft: "left", columnRight: "right"}

// checkLinks rejects any parent, left, right or free slot index that does
// not fit an arena of size slots.
func checkLinks(buffers [hibernatedColumns][]uint32, gaps []uint32, size int) error {
	for _, col := range [...]int{columnParent, columnLeft, columnRight} {
		for idx, link := range buffers[col] {
			if int(link) >= size {
				return fmt.Errorf("%w: %s link of node %d is %d, arena has %d slots",
					ErrCorruptArena, linkColumnNames[col], idx, link, size)
			}
		}
	}

	for _, gap := range gaps {
		if gap == 0 || int(gap) >= size {
			return fmt.Errorf("%w: free slot %d, arena has %d slots", ErrCorruptArena, gap, size)
		}
	}

	return nil
}

// HibernatedSize returns the number of compressed bytes held while hibernated.
func (allocator *Allocator[K]) HibernatedSize() int {
	size := 0
	for _, data := range allocator.hibernatedData {
		size += len(data)
	}

	return size
}

// Serialize writes the hibernated allocator on disk.
func (allocator *Allocator[K]) Serialize(path string) error {
	if allocator.storage != nil {
		panic("serialization requires the hibernated state")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	defer file.Close()

	writer := bufio.NewWriter(file)

	header := []struct {
		name  string
		value int
	}{
		{"storage len", allocator.hibernatedStorageLen},
		{"gaps len", allocator.hibernatedGapsLen},
		{"keys len", allocator.hibernatedKeysLen},
	}

	for _, field := range header {
		err = writeUvarint(writer, field.value)
		if err != nil {
			return fmt.Errorf("write %s: %w", field.name, err)
		}
	}

	for idx, hse := range allocator.hibernatedData {
		err = writeUvarint(writer, len(hse))
		if err != nil {
			return fmt.Errorf("write data len %d: %w", idx, err)
		}

		_, err = writer.Write(hse)
		if err != nil {
			return fmt.Errorf("write data %d: %w", idx, err)
		}
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	allocator.hibernatedData = [hibernatedColumns][]byte{}

	return nil
}

// Deserialize reads a hibernated allocator from disk. A fresh allocator that
// never allocated a node is accepted as well.
func (allocator *Allocator[K]) Deserialize(path string) error {
	if len(allocator.storage) > 0 {
		panic("deserialization requires the hibernated state")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	defer file.Close()

	reader := bufio.NewReader(file)

	storageLen, err := readUvarint(reader)
	if err != nil {
		return fmt.Errorf("read storage len: %w", err)
	}

	gapsLen, err := readUvarint(reader)
	if err != nil {
		return fmt.Errorf("read gaps len: %w", err)
	}

	keysLen, err := readUvarint(reader)
	if err != nil {
		return fmt.Errorf("read keys len: %w", err)
	}

	var data [hibernatedColumns][]byte

	for idx := range data {
		dataLen, readErr := readUvarint(reader)
		if readErr != nil {
			return fmt.Errorf("read data len %d: %w", idx, readErr)
		}

		data[idx] = make([]byte, dataLen)

		bytesRead, readErr := io.ReadFull(reader, data[idx])
		if readErr != nil {
			return fmt.Errorf("%w %d: %d instead of %d", ErrIncompleteRead, idx, bytesRead, dataLen)
		}
	}

	allocator.storage = nil
	allocator.gaps = nil
	allocator.hibernatedStorageLen = storageLen
	allocator.hibernatedGapsLen = gapsLen
	allocator.hibernatedKeysLen = keysLen
	allocator.hibernatedData = data

	return nil
}

func writeUvarint(writer io.Writer, value int) error {
	buf := binary.AppendUvarint(nil, safeconv.MustIntToUint64(value))

	_, err := writer.Write(buf)
	if err != nil {
		return fmt.Errorf("write uvarint: %w", err)
	}

	return nil
}

func readUvarint(reader io.ByteReader) (int, error) {
	value, err := binary.ReadUvarint(reader)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %w", ErrIncompleteRead, err)
		}

		return 0, fmt.Errorf("read uvarint: %w", err)
	}

	if value > uint64(safeconv.MaxInt) {
		return 0, fmt.Errorf("%w: length %d overflows int", ErrIncompleteRead, value)
	}

	return int(value), nil
}
