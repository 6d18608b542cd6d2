package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethcanon/ethcanon/rlp"
)

// Header represents a block header.
//
// WithdrawalsHash is the only optional consensus field: it encodes as
// the RLP null string when absent, and decoding tolerates legacy
// 17-item headers that predate the field entirely.
type Header struct {
	ParentHash      Hash
	UncleHash       Hash
	Coinbase        Address
	Root            Hash
	TxHash          Hash
	ReceiptHash     Hash
	Bloom           Bloom
	Difficulty      *big.Int
	Number          *big.Int
	GasLimit        uint64
	GasUsed         uint64
	Time            uint64
	Extra           []byte
	MixDigest       Hash
	Nonce           BlockNonce
	BaseFee         *big.Int
	WithdrawalsHash *Hash

	hash atomic.Pointer[Hash]
}

// Hash returns the keccak256 of the header's RLP encoding, cached
// after the first computation.
func (h *Header) Hash() Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	enc, err := h.EncodeRLP()
	if err != nil {
		return Hash{}
	}
	hash := BytesToHash(keccak(enc))
	h.hash.Store(&hash)
	return hash
}

// EncodeRLP returns the consensus encoding of the header.
func (h *Header) EncodeRLP() ([]byte, error) {
	var payload []byte
	payload = rlp.AppendBytes(payload, h.ParentHash.Bytes())
	payload = rlp.AppendBytes(payload, h.UncleHash.Bytes())
	payload = rlp.AppendBytes(payload, h.Coinbase.Bytes())
	payload = rlp.AppendBytes(payload, h.Root.Bytes())
	payload = rlp.AppendBytes(payload, h.TxHash.Bytes())
	payload = rlp.AppendBytes(payload, h.ReceiptHash.Bytes())
	payload = rlp.AppendBytes(payload, h.Bloom[:])

	diff, err := rlp.EncodeToBytes(bigOrZero(h.Difficulty))
	if err != nil {
		return nil, err
	}
	payload = append(payload, diff...)
	num, err := rlp.EncodeToBytes(bigOrZero(h.Number))
	if err != nil {
		return nil, err
	}
	payload = append(payload, num...)

	payload = rlp.AppendUint64(payload, h.GasLimit)
	payload = rlp.AppendUint64(payload, h.GasUsed)
	payload = rlp.AppendUint64(payload, h.Time)
	payload = rlp.AppendBytes(payload, h.Extra)
	payload = rlp.AppendBytes(payload, h.MixDigest.Bytes())
	payload = rlp.AppendBytes(payload, h.Nonce[:])

	baseFee, err := rlp.EncodeToBytes(bigOrZero(h.BaseFee))
	if err != nil {
		return nil, err
	}
	payload = append(payload, baseFee...)

	if h.WithdrawalsHash != nil {
		payload = rlp.AppendBytes(payload, h.WithdrawalsHash.Bytes())
	} else {
		payload = append(payload, 0x80)
	}

	return rlp.WrapList(payload), nil
}

// DecodeHeaderRLP decodes a consensus header encoding. Both the
// 18-item form and the legacy 17-item form without a withdrawals root
// are accepted.
func DecodeHeaderRLP(b []byte) (*Header, error) {
	s := rlp.NewStreamFromBytes(b)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	h := new(Header)
	var err error
	if h.ParentHash, err = decodeHash(s); err != nil {
		return nil, err
	}
	if h.UncleHash, err = decodeHash(s); err != nil {
		return nil, err
	}
	if h.Coinbase, err = decodeAddress(s); err != nil {
		return nil, err
	}
	if h.Root, err = decodeHash(s); err != nil {
		return nil, err
	}
	if h.TxHash, err = decodeHash(s); err != nil {
		return nil, err
	}
	if h.ReceiptHash, err = decodeHash(s); err != nil {
		return nil, err
	}
	bloom, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(bloom) != BloomLength {
		return nil, fmt.Errorf("types: header bloom has %d bytes", len(bloom))
	}
	copy(h.Bloom[:], bloom)
	if h.Difficulty, err = s.BigInt(); err != nil {
		return nil, err
	}
	if h.Number, err = s.BigInt(); err != nil {
		return nil, err
	}
	if h.GasLimit, err = s.Uint64(); err != nil {
		return nil, err
	}
	if h.GasUsed, err = s.Uint64(); err != nil {
		return nil, err
	}
	if h.Time, err = s.Uint64(); err != nil {
		return nil, err
	}
	extra, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	h.Extra = append([]byte(nil), extra...)
	if h.MixDigest, err = decodeHash(s); err != nil {
		return nil, err
	}
	nonce, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(nonce) != len(h.Nonce) {
		return nil, fmt.Errorf("types: header nonce has %d bytes", len(nonce))
	}
	copy(h.Nonce[:], nonce)
	if h.BaseFee, err = s.BigInt(); err != nil {
		return nil, err
	}
	if !s.AtListEnd() {
		wr, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		switch len(wr) {
		case 0:
			// null slot, no withdrawals root
		case HashLength:
			hash := BytesToHash(wr)
			h.WithdrawalsHash = &hash
		default:
			return nil, fmt.Errorf("types: withdrawals root has %d bytes", len(wr))
		}
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrTrailingBytes
	}
	return h, nil
}

func decodeHash(s *rlp.Stream) (Hash, error) {
	b, err := s.Bytes()
	if err != nil {
		return Hash{}, err
	}
	if len(b) != HashLength {
		return Hash{}, fmt.Errorf("types: hash field has %d bytes", len(b))
	}
	return BytesToHash(b), nil
}

func decodeAddress(s *rlp.Stream) (Address, error) {
	b, err := s.Bytes()
	if err != nil {
		return Address{}, err
	}
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("types: address field has %d bytes", len(b))
	}
	return BytesToAddress(b), nil
}

type headerJSON struct {
	ParentHash       Hash       `json:"parentHash"`
	Sha3Uncles       Hash       `json:"sha3Uncles"`
	Miner            Address    `json:"miner"`
	StateRoot        Hash       `json:"stateRoot"`
	TransactionsRoot Hash       `json:"transactionsRoot"`
	ReceiptsRoot     Hash       `json:"receiptsRoot"`
	LogsBloom        Bloom      `json:"logsBloom"`
	Difficulty       *HexBig    `json:"difficulty"`
	Number           *HexBig    `json:"number"`
	GasLimit         HexUint64  `json:"gasLimit"`
	GasUsed          HexUint64  `json:"gasUsed"`
	Timestamp        HexUint64  `json:"timestamp"`
	ExtraData        HexBytes   `json:"extraData"`
	MixHash          Hash       `json:"mixHash"`
	Nonce            BlockNonce `json:"nonce"`
	BaseFeePerGas    *HexBig    `json:"baseFeePerGas"`
	WithdrawalsRoot  *Hash      `json:"withdrawalsRoot,omitempty"`
	Hash             Hash       `json:"hash"`
}

// MarshalJSON encodes the header in the RPC shape, including the
// derived block hash.
func (h *Header) MarshalJSON() ([]byte, error) {
	return json.Marshal(headerJSON{
		ParentHash:       h.ParentHash,
		Sha3Uncles:       h.UncleHash,
		Miner:            h.Coinbase,
		StateRoot:        h.Root,
		TransactionsRoot: h.TxHash,
		ReceiptsRoot:     h.ReceiptHash,
		LogsBloom:        h.Bloom,
		Difficulty:       bigToHex(bigOrZero(h.Difficulty)),
		Number:           bigToHex(bigOrZero(h.Number)),
		GasLimit:         HexUint64(h.GasLimit),
		GasUsed:          HexUint64(h.GasUsed),
		Timestamp:        HexUint64(h.Time),
		ExtraData:        h.Extra,
		MixHash:          h.MixDigest,
		Nonce:            h.Nonce,
		BaseFeePerGas:    bigToHex(bigOrZero(h.BaseFee)),
		WithdrawalsRoot:  h.WithdrawalsHash,
		Hash:             h.Hash(),
	})
}

// UnmarshalJSON decodes the RPC shape of the header. The derived hash
// field is ignored; it is recomputed on demand.
func (h *Header) UnmarshalJSON(input []byte) error {
	var dec headerJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	h.ParentHash = dec.ParentHash
	h.UncleHash = dec.Sha3Uncles
	h.Coinbase = dec.Miner
	h.Root = dec.StateRoot
	h.TxHash = dec.TransactionsRoot
	h.ReceiptHash = dec.ReceiptsRoot
	h.Bloom = dec.LogsBloom
	h.Difficulty = dec.Difficulty.toBig()
	h.Number = dec.Number.toBig()
	h.GasLimit = uint64(dec.GasLimit)
	h.GasUsed = uint64(dec.GasUsed)
	h.Time = uint64(dec.Timestamp)
	h.Extra = dec.ExtraData
	h.MixDigest = dec.MixHash
	h.Nonce = dec.Nonce
	h.BaseFee = dec.BaseFeePerGas.toBig()
	h.WithdrawalsHash = dec.WithdrawalsRoot
	h.hash.Store(nil)
	return nil
}

// CopyHeader deep-copies a header, dropping the cached hash.
func CopyHeader(h *Header) *Header {
	cpy := &Header{
		ParentHash:  h.ParentHash,
		UncleHash:   h.UncleHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Bloom:       h.Bloom,
		Difficulty:  bigCopy(h.Difficulty),
		Number:      bigCopy(h.Number),
		GasLimit:    h.GasLimit,
		GasUsed:     h.GasUsed,
		Time:        h.Time,
		Extra:       append([]byte(nil), h.Extra...),
		MixDigest:   h.MixDigest,
		Nonce:       h.Nonce,
		BaseFee:     bigCopy(h.BaseFee),
	}
	if h.WithdrawalsHash != nil {
		wh := *h.WithdrawalsHash
		cpy.WithdrawalsHash = &wh
	}
	return cpy
}
