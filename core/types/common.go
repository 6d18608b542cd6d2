// Package types holds the consensus data model: transactions, receipts,
// logs, headers, blocks and the RPC record shapes derived from them.
// All canonical encodings live here.
package types

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the expected length of a hash in bytes.
	HashLength = 32
	// AddressLength is the expected length of an address in bytes.
	AddressLength = 20
)

var (
	// EmptyRootHash is the root of an empty merkle trie.
	EmptyRootHash = HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyUncleHash is the hash of an empty RLP-encoded uncle list.
	EmptyUncleHash = HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")

	// EmptyCodeHash is the keccak256 of empty code.
	EmptyCodeHash = HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

// Hash represents a 32-byte keccak256 digest.
type Hash [HashLength]byte

// BytesToHash converts b to a Hash, left-padding or truncating from the
// left so the low-order bytes are kept.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash parses a 0x-prefixed or bare hex string into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// SetBytes sets the hash to b. If b is longer than 32 bytes it is
// cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed lowercase hex encoding of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// Address represents a 20-byte account address.
type Address [AddressLength]byte

// BytesToAddress converts b to an Address, left-padding or truncating
// from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress parses a 0x-prefixed or bare hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// SetBytes sets the address to b. If b is longer than 20 bytes it is
// cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed lowercase hex encoding of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// BlockNonce is the 64-bit proof-of-work nonce. Headers encode it as an
// 8-byte big-endian string, not as an RLP integer.
type BlockNonce [8]byte

// EncodeNonce converts a uint64 into a BlockNonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	for b := 7; b >= 0; b-- {
		n[b] = byte(i)
		i >>= 8
	}
	return n
}

// Uint64 returns the nonce as an integer.
func (n BlockNonce) Uint64() uint64 {
	var v uint64
	for _, b := range n {
		v = v<<8 | uint64(b)
	}
	return v
}

// fromHex decodes a hex string with optional 0x prefix, tolerating an
// odd number of digits by left-padding with zero.
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// decodeHexFixed strictly decodes a 0x-prefixed hex string into exactly
// want bytes.
func decodeHexFixed(s string, want int) ([]byte, error) {
	if !has0xPrefix(s) {
		return nil, fmt.Errorf("types: hex string without 0x prefix: %q", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("types: invalid hex %q: %w", s, err)
	}
	if len(b) != want {
		return nil, fmt.Errorf("types: hex string has %d bytes, want %d", len(b), want)
	}
	return b, nil
}
