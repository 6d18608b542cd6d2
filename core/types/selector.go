package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// BlockSelector designates a block for a query: the latest block, a
// block number, or an exact block hash.
type BlockSelector struct {
	Latest bool
	Number *uint64
	Hash   *Hash
}

// LatestBlockSelector selects the chain head.
func LatestBlockSelector() BlockSelector {
	return BlockSelector{Latest: true}
}

// NumberBlockSelector selects a block by number.
func NumberBlockSelector(n uint64) BlockSelector {
	return BlockSelector{Number: &n}
}

// HashBlockSelector selects a block by hash.
func HashBlockSelector(h Hash) BlockSelector {
	return BlockSelector{Hash: &h}
}

// ParseBlockSelector parses the string form of a selector:
//
//   - "latest" or the empty string select the head
//   - a string without 0x prefix is a decimal block number
//   - a 0x string of 64 hex digits is a block hash
//   - any other 0x string is a hex block number
func ParseBlockSelector(s string) (BlockSelector, error) {
	if s == "" || s == "latest" {
		return LatestBlockSelector(), nil
	}
	if !has0xPrefix(s) {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return BlockSelector{}, fmt.Errorf("types: invalid block number %q: %w", s, err)
		}
		return NumberBlockSelector(n), nil
	}
	if len(s) == 2+2*HashLength {
		b, err := decodeHexFixed(s, HashLength)
		if err != nil {
			return BlockSelector{}, err
		}
		return HashBlockSelector(BytesToHash(b)), nil
	}
	n, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return BlockSelector{}, fmt.Errorf("types: invalid block selector %q: %w", s, err)
	}
	return NumberBlockSelector(n), nil
}

// String returns the canonical string form of the selector.
func (s BlockSelector) String() string {
	switch {
	case s.Hash != nil:
		return s.Hash.Hex()
	case s.Number != nil:
		return encodeUint64Hex(*s.Number)
	default:
		return "latest"
	}
}

// MarshalJSON encodes the selector in its string form.
func (s BlockSelector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the string form of the selector.
func (s *BlockSelector) UnmarshalJSON(input []byte) error {
	var raw string
	if err := json.Unmarshal(input, &raw); err != nil {
		return err
	}
	sel, err := ParseBlockSelector(raw)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
