package rbtree

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCorruptKey is returned when a key cannot be decoded from a compacted arena.
var ErrCorruptKey = errors.New("corrupt key encoding")

// KeyCodec encodes keys for arena compaction and snapshots.
type KeyCodec[K any] interface {
	// AppendKey appends the encoding of key to dst.
	AppendKey(dst []byte, key K) []byte
	// ReadKey decodes one key from the head of src and reports the bytes consumed.
	ReadKey(src []byte) (K, int, error)
}

// Uint32Codec encodes uint32 keys as uvarints.
type Uint32Codec struct{}

// AppendKey implements KeyCodec.
func (Uint32Codec) AppendKey(dst []byte, key uint32) []byte {
	return binary.AppendUvarint(dst, uint64(key))
}

// ReadKey implements KeyCodec.
func (Uint32Codec) ReadKey(src []byte) (uint32, int, error) {
	value, read := binary.Uvarint(src)
	if read <= 0 || value > uint64(^uint32(0)) {
		return 0, 0, fmt.Errorf("%w: uint32", ErrCorruptKey)
	}

	return uint32(value), read, nil
}

// Int64Codec encodes int64 keys as zig-zag varints.
type Int64Codec struct{}

// AppendKey implements KeyCodec.
func (Int64Codec) AppendKey(dst []byte, key int64) []byte {
	return binary.AppendVarint(dst, key)
}

// ReadKey implements KeyCodec.
func (Int64Codec) ReadKey(src []byte) (int64, int, error) {
	value, read := binary.Varint(src)
	if read <= 0 {
		return 0, 0, fmt.Errorf("%w: int64", ErrCorruptKey)
	}

	return value, read, nil
}

// StringCodec encodes string keys with a uvarint length prefix.
type StringCodec struct{}

// AppendKey implements KeyCodec.
func (StringCodec) AppendKey(dst []byte, key string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(key)))

	return append(dst, key...)
}

// ReadKey implements KeyCodec.
func (StringCodec) ReadKey(src []byte) (string, int, error) {
	size, read := binary.Uvarint(src)
	if read <= 0 || size > uint64(len(src)-read) {
		return "", 0, fmt.Errorf("%w: string", ErrCorruptKey)
	}

	end := read + int(size)

	return string(src[read:end]), end, nil
}
