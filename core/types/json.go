package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// JSON conventions for the RPC-facing records: fixed-width byte types
// serialize as 0x-prefixed lowercase hex of their full width, byte
// blobs as 0x-prefixed hex of their contents, and quantities as
// 0x-prefixed minimal hex with no leading zeros ("0x0" for zero).

// MarshalJSON encodes the hash as a 66-character hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON decodes a 66-character hex string into the hash.
func (h *Hash) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	b, err := decodeHexFixed(s, HashLength)
	if err != nil {
		return err
	}
	copy(h[:], b)
	return nil
}

// MarshalJSON encodes the address as a 42-character hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON decodes a 42-character hex string into the address.
func (a *Address) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	b, err := decodeHexFixed(s, AddressLength)
	if err != nil {
		return err
	}
	copy(a[:], b)
	return nil
}

// MarshalJSON encodes the bloom filter as 512 hex characters.
func (b Bloom) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(b[:]))
}

// UnmarshalJSON decodes a 512-character hex string into the bloom.
func (b *Bloom) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	d, err := decodeHexFixed(s, BloomLength)
	if err != nil {
		return err
	}
	copy(b[:], d)
	return nil
}

// MarshalJSON encodes the nonce as a quantity.
func (n BlockNonce) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodeUint64Hex(n.Uint64()))
}

// UnmarshalJSON decodes a quantity into the nonce.
func (n *BlockNonce) UnmarshalJSON(input []byte) error {
	v, err := unmarshalQuantity(input)
	if err != nil {
		return err
	}
	*n = EncodeNonce(v)
	return nil
}

// HexBytes is a []byte that serializes as 0x-prefixed hex.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(b))
}

func (b *HexBytes) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	if !has0xPrefix(s) {
		return fmt.Errorf("types: hex string without 0x prefix: %q", s)
	}
	d, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("types: invalid hex %q: %w", s, err)
	}
	*b = d
	return nil
}

// HexUint64 is a uint64 quantity that serializes as minimal hex.
type HexUint64 uint64

func (v HexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodeUint64Hex(uint64(v)))
}

func (v *HexUint64) UnmarshalJSON(input []byte) error {
	u, err := unmarshalQuantity(input)
	if err != nil {
		return err
	}
	*v = HexUint64(u)
	return nil
}

// HexBig is a big.Int quantity that serializes as minimal hex. The
// zero pointer marshals as null.
type HexBig big.Int

func (v *HexBig) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(encodeBigHex((*big.Int)(v)))
}

func (v *HexBig) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	i, err := parseQuantity(s)
	if err != nil {
		return err
	}
	*v = HexBig(*i)
	return nil
}

func (v *HexBig) toBig() *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

func bigToHex(i *big.Int) *HexBig {
	return (*HexBig)(i)
}

func encodeUint64Hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

func encodeBigHex(i *big.Int) string {
	if i == nil || i.Sign() == 0 {
		return "0x0"
	}
	return "0x" + i.Text(16)
}

func unmarshalQuantity(input []byte) (uint64, error) {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return 0, err
	}
	if !has0xPrefix(s) {
		return 0, fmt.Errorf("types: quantity without 0x prefix: %q", s)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}

func parseQuantity(s string) (*big.Int, error) {
	if !has0xPrefix(s) {
		return nil, fmt.Errorf("types: quantity without 0x prefix: %q", s)
	}
	i, ok := new(big.Int).SetString(strings.ToLower(s[2:]), 16)
	if !ok {
		return nil, fmt.Errorf("types: invalid quantity %q", s)
	}
	return i, nil
}
