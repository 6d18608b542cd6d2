package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethcanon/ethcanon/rlp"
)

// Receipt statuses post-Byzantium.
const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt is the result of a transaction execution. PostState carries
// the pre-Byzantium intermediate state root; when it is empty the
// Status field is authoritative.
type Receipt struct {
	// Consensus fields.
	Type              byte
	PostState         []byte
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log

	// Derived fields, filled from the inclusion context.
	TxHash           Hash
	ContractAddress  *Address
	GasUsed          uint64
	BlockHash        Hash
	BlockNumber      *big.Int
	TransactionIndex uint64
}

// statusEncoding returns the first consensus field: the post state when
// present, otherwise the empty string for failure or {1} for success.
func (r *Receipt) statusEncoding() []byte {
	if len(r.PostState) > 0 {
		return r.PostState
	}
	if r.Status == ReceiptStatusFailed {
		return nil
	}
	return []byte{0x01}
}

type receiptRLP struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []logRLP
}

// EncodeRLP returns the consensus encoding of the receipt. Typed
// receipts carry the raw transaction type byte before the RLP list;
// legacy receipts are the bare list.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	logs := make([]logRLP, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = logRLP{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	enc, err := rlp.EncodeToBytes(receiptRLP{
		PostStateOrStatus: r.statusEncoding(),
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              logs,
	})
	if err != nil {
		return nil, err
	}
	switch r.Type {
	case LegacyTxType:
		return enc, nil
	case AccessListTxType, DynamicFeeTxType:
		out := make([]byte, 0, 1+len(enc))
		out = append(out, r.Type)
		return append(out, enc...), nil
	default:
		return nil, ErrTxTypeNotSupported
	}
}

// DecodeReceiptRLP decodes a consensus receipt encoding.
func DecodeReceiptRLP(b []byte) (*Receipt, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("types: empty receipt bytes")
	}
	r := new(Receipt)
	if b[0] <= 0x7f {
		switch b[0] {
		case AccessListTxType, DynamicFeeTxType:
			r.Type = b[0]
			b = b[1:]
		default:
			return nil, fmt.Errorf("%w: receipt type %#x", ErrTxTypeNotSupported, b[0])
		}
	}
	s := rlp.NewStreamFromBytes(b)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	status, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if err := r.setStatus(status); err != nil {
		return nil, err
	}
	if r.CumulativeGasUsed, err = s.Uint64(); err != nil {
		return nil, err
	}
	bloom, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(bloom) != BloomLength {
		return nil, fmt.Errorf("types: receipt bloom has %d bytes", len(bloom))
	}
	copy(r.Bloom[:], bloom)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	for !s.AtListEnd() {
		l, err := decodeLogRLP(s)
		if err != nil {
			return nil, err
		}
		r.Logs = append(r.Logs, l)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrTrailingBytes
	}
	return r, nil
}

// setStatus interprets the first consensus field: a 32-byte value is a
// pre-Byzantium state root, otherwise it encodes the boolean status.
func (r *Receipt) setStatus(b []byte) error {
	switch {
	case len(b) == HashLength:
		r.PostState = append([]byte(nil), b...)
	case len(b) == 0:
		r.Status = ReceiptStatusFailed
	case len(b) == 1 && b[0] == 0x01:
		r.Status = ReceiptStatusSuccessful
	default:
		return fmt.Errorf("types: invalid receipt status %x", b)
	}
	return nil
}

// Succeeded reports whether execution succeeded. Pre-Byzantium receipts
// carry no status and report true.
func (r *Receipt) Succeeded() bool {
	return len(r.PostState) > 0 || r.Status == ReceiptStatusSuccessful
}

// Compare collects a description of every field where the two receipts
// differ. An empty result means they match.
func (r *Receipt) Compare(other *Receipt) []string {
	var diffs []string
	diff := func(field string, a, b interface{}) {
		diffs = append(diffs, fmt.Sprintf("%s: %v != %v", field, a, b))
	}
	if r.Type != other.Type {
		diff("type", r.Type, other.Type)
	}
	if !bytes.Equal(r.PostState, other.PostState) {
		diff("postState", HexBytes(r.PostState), HexBytes(other.PostState))
	}
	if r.Status != other.Status {
		diff("status", r.Status, other.Status)
	}
	if r.CumulativeGasUsed != other.CumulativeGasUsed {
		diff("cumulativeGasUsed", r.CumulativeGasUsed, other.CumulativeGasUsed)
	}
	if r.Bloom != other.Bloom {
		diff("logsBloom", r.Bloom[:8], other.Bloom[:8])
	}
	if len(r.Logs) != len(other.Logs) {
		diff("logs length", len(r.Logs), len(other.Logs))
	} else {
		for i := range r.Logs {
			a, _ := r.Logs[i].EncodeRLP()
			b, _ := other.Logs[i].EncodeRLP()
			if !bytes.Equal(a, b) {
				diff(fmt.Sprintf("logs[%d]", i), r.Logs[i], other.Logs[i])
			}
		}
	}
	if r.TxHash != other.TxHash {
		diff("transactionHash", r.TxHash, other.TxHash)
	}
	if !addressPtrEqual(r.ContractAddress, other.ContractAddress) {
		diff("contractAddress", r.ContractAddress, other.ContractAddress)
	}
	if r.GasUsed != other.GasUsed {
		diff("gasUsed", r.GasUsed, other.GasUsed)
	}
	if r.BlockHash != other.BlockHash {
		diff("blockHash", r.BlockHash, other.BlockHash)
	}
	if bigCmpNil(r.BlockNumber, other.BlockNumber) != 0 {
		diff("blockNumber", r.BlockNumber, other.BlockNumber)
	}
	if r.TransactionIndex != other.TransactionIndex {
		diff("transactionIndex", r.TransactionIndex, other.TransactionIndex)
	}
	return diffs
}

func addressPtrEqual(a, b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// bigCmpNil compares two possibly nil big ints; nil sorts before any
// value and equals only nil.
func bigCmpNil(a, b *big.Int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Cmp(b)
	}
}

type receiptJSON struct {
	Type              HexUint64 `json:"type"`
	Root              HexBytes  `json:"root,omitempty"`
	Status            HexUint64 `json:"status"`
	CumulativeGasUsed HexUint64 `json:"cumulativeGasUsed"`
	LogsBloom         Bloom     `json:"logsBloom"`
	Logs              []*Log    `json:"logs"`
	TransactionHash   Hash      `json:"transactionHash"`
	ContractAddress   *Address  `json:"contractAddress"`
	GasUsed           HexUint64 `json:"gasUsed"`
	BlockHash         Hash      `json:"blockHash"`
	BlockNumber       *HexBig   `json:"blockNumber"`
	TransactionIndex  HexUint64 `json:"transactionIndex"`
}

// MarshalJSON encodes the receipt in the RPC shape.
func (r *Receipt) MarshalJSON() ([]byte, error) {
	logs := r.Logs
	if logs == nil {
		logs = []*Log{}
	}
	return json.Marshal(receiptJSON{
		Type:              HexUint64(r.Type),
		Root:              r.PostState,
		Status:            HexUint64(r.Status),
		CumulativeGasUsed: HexUint64(r.CumulativeGasUsed),
		LogsBloom:         r.Bloom,
		Logs:              logs,
		TransactionHash:   r.TxHash,
		ContractAddress:   r.ContractAddress,
		GasUsed:           HexUint64(r.GasUsed),
		BlockHash:         r.BlockHash,
		BlockNumber:       bigToHex(r.BlockNumber),
		TransactionIndex:  HexUint64(r.TransactionIndex),
	})
}

// UnmarshalJSON decodes the RPC shape of the receipt.
func (r *Receipt) UnmarshalJSON(input []byte) error {
	var dec receiptJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	r.Type = byte(dec.Type)
	r.PostState = dec.Root
	r.Status = uint64(dec.Status)
	r.CumulativeGasUsed = uint64(dec.CumulativeGasUsed)
	r.Bloom = dec.LogsBloom
	r.Logs = dec.Logs
	r.TxHash = dec.TransactionHash
	r.ContractAddress = dec.ContractAddress
	r.GasUsed = uint64(dec.GasUsed)
	r.BlockHash = dec.BlockHash
	r.BlockNumber = dec.BlockNumber.toBig()
	r.TransactionIndex = uint64(dec.TransactionIndex)
	return nil
}
