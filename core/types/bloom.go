package types

import (
	"encoding/binary"

	"github.com/ethcanon/ethcanon/crypto"
)

const (
	// BloomLength is the byte width of the log bloom filter.
	BloomLength = 256
	// BloomBitLength is the number of bits in the filter (2048).
	BloomBitLength = 8 * BloomLength
)

// Bloom represents the 2048-bit log bloom filter carried in headers and
// receipts.
type Bloom [BloomLength]byte

// BytesToBloom converts b to a Bloom, left-padding if short.
func BytesToBloom(b []byte) Bloom {
	var bloom Bloom
	if len(b) > BloomLength {
		b = b[len(b)-BloomLength:]
	}
	copy(bloom[BloomLength-len(b):], b)
	return bloom
}

// bloom9 computes the three bit positions an entry sets in the filter.
// The positions come from the first six bytes of keccak256(data),
// taken as three big-endian 16-bit pairs masked to 11 bits.
func bloom9(data []byte) [3]uint {
	h := crypto.Keccak256(data)
	var bits [3]uint
	for i := 0; i < 3; i++ {
		bits[i] = uint(binary.BigEndian.Uint16(h[2*i:])) & 0x7ff
	}
	return bits
}

// Add merges data into the filter. Bit b of the 2048-bit value maps to
// byte 255 - b/8, keeping the filter big-endian as one wide integer.
func (b *Bloom) Add(data []byte) {
	for _, bit := range bloom9(data) {
		b[BloomLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// Test reports whether data may have been added to the filter. False
// positives are possible, false negatives are not.
func (b Bloom) Test(data []byte) bool {
	for _, bit := range bloom9(data) {
		if b[BloomLength-1-bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// addLog sets the bits for a log's address and each of its topics.
func (b *Bloom) addLog(l *Log) {
	b.Add(l.Address.Bytes())
	for _, topic := range l.Topics {
		b.Add(topic.Bytes())
	}
}

// LogsBloom returns the filter covering the given logs.
func LogsBloom(logs []*Log) Bloom {
	var b Bloom
	for _, l := range logs {
		b.addLog(l)
	}
	return b
}

// CreateBloom builds the union filter over all logs of all receipts.
func CreateBloom(receipts []*Receipt) Bloom {
	var b Bloom
	for _, r := range receipts {
		for _, l := range r.Logs {
			b.addLog(l)
		}
	}
	return b
}
