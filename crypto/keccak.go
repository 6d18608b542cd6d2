package crypto

import "golang.org/x/crypto/sha3"

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Fixed calculates Keccak-256 and returns it as a fixed array.
func Keccak256Fixed(data ...[]byte) [32]byte {
	var h [32]byte
	copy(h[:], Keccak256(data...))
	return h
}
