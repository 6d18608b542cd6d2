// derive.go computes the index-keyed trie roots used by block headers:
// transactions, receipts and withdrawals are inserted under their
// RLP-encoded list index.
package trie

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/ethcanon/ethcanon/core/types"
	"github.com/ethcanon/ethcanon/rlp"
)

// emptyRoot is the root of a trie with no entries,
// keccak256(rlp("")).
var emptyRoot = types.EmptyRootHash

// NodeWriter persists trie nodes keyed by their hash during Commit.
type NodeWriter interface {
	Put(hash types.Hash, data []byte)
}

// Hasher derives index-keyed trie roots. The zero value is ready to use.
type Hasher struct{}

// OrderedRoot returns the trie root of the given encoded items, keyed by
// the RLP encoding of their position. Keys are sorted bytewise before
// insertion since rlp(0) = 0x80 sorts after the one-byte encodings of
// indexes 1 through 127.
func (Hasher) OrderedRoot(items [][]byte) types.Hash {
	type kv struct {
		key []byte
		val []byte
	}
	pairs := make([]kv, len(items))
	for i, item := range items {
		pairs[i] = kv{key: rlp.EncodeUint64(uint64(i)), val: item}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].key, pairs[j].key) < 0
	})
	st := NewStackTrie(nil)
	for _, p := range pairs {
		// Keys are distinct by construction, so Update cannot fail.
		st.Update(p.key, p.val)
	}
	return st.Hash()
}

// compareBytesLess reports whether a sorts strictly before b.
func compareBytesLess(a, b []byte) bool {
	return bytes.Compare(a, b) < 0
}

func keysEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// wrapListPayload prepends the RLP list header to an encoded payload.
func wrapListPayload(payload []byte) []byte {
	if len(payload) <= 55 {
		return append([]byte{0xc0 + byte(len(payload))}, payload...)
	}
	lenBytes := putUintBigEndian(uint64(len(payload)))
	out := make([]byte, 0, 1+len(lenBytes)+len(payload))
	out = append(out, 0xf7+byte(len(lenBytes)))
	out = append(out, lenBytes...)
	return append(out, payload...)
}

// putUintBigEndian returns the big-endian bytes of u without leading zeros.
func putUintBigEndian(u uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u)
	i := 0
	for i < 7 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}
