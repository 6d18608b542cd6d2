// raw.go provides non-reflective fast paths for building RLP payloads
// incrementally. These avoid the reflection overhead of EncodeToBytes in
// hot paths such as trie hashing and envelope construction.
package rlp

// EncodeUint64 returns the RLP encoding of a uint64.
func EncodeUint64(v uint64) []byte {
	return AppendUint64(nil, v)
}

// AppendUint64 appends the RLP encoding of v to dst and returns the
// extended slice.
func AppendUint64(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0x80)
	}
	if v < 128 {
		return append(dst, byte(v))
	}
	b := putUintBigEndian(v)
	dst = append(dst, 0x80+byte(len(b)))
	return append(dst, b...)
}

// AppendBytes appends the RLP string encoding of data to dst.
func AppendBytes(dst, data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return append(dst, data[0])
	}
	if n <= 55 {
		dst = append(dst, 0x80+byte(n))
		return append(dst, data...)
	}
	lb := putUintBigEndian(uint64(n))
	dst = append(dst, 0xb7+byte(len(lb)))
	dst = append(dst, lb...)
	return append(dst, data...)
}

// AppendListHeader appends an RLP list header for a payload of the given
// size. The caller must append exactly payloadSize bytes of encoded items
// afterward.
func AppendListHeader(dst []byte, payloadSize int) []byte {
	if payloadSize <= 55 {
		return append(dst, 0xc0+byte(payloadSize))
	}
	lb := putUintBigEndian(uint64(payloadSize))
	dst = append(dst, 0xf7+byte(len(lb)))
	return append(dst, lb...)
}
