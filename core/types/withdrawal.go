package types

import (
	"encoding/json"

	"github.com/ethcanon/ethcanon/rlp"
)

// Withdrawal represents a validator withdrawal pushed into the
// execution layer by the consensus layer.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        Address
	Amount         uint64 // in Gwei
}

type withdrawalRLP struct {
	Index          uint64
	ValidatorIndex uint64
	Address        Address
	Amount         uint64
}

// EncodeRLP returns the consensus encoding of the withdrawal.
func (w *Withdrawal) EncodeRLP() ([]byte, error) {
	return rlp.EncodeToBytes(withdrawalRLP(*w))
}

// DecodeWithdrawalRLP decodes a consensus withdrawal encoding.
func DecodeWithdrawalRLP(b []byte) (*Withdrawal, error) {
	var enc withdrawalRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	w := Withdrawal(enc)
	return &w, nil
}

type withdrawalJSON struct {
	Index          HexUint64 `json:"index"`
	ValidatorIndex HexUint64 `json:"validatorIndex"`
	Address        Address   `json:"address"`
	Amount         HexUint64 `json:"amount"`
}

// MarshalJSON encodes the withdrawal in the RPC shape.
func (w *Withdrawal) MarshalJSON() ([]byte, error) {
	return json.Marshal(withdrawalJSON{
		Index:          HexUint64(w.Index),
		ValidatorIndex: HexUint64(w.ValidatorIndex),
		Address:        w.Address,
		Amount:         HexUint64(w.Amount),
	})
}

// UnmarshalJSON decodes the RPC shape of the withdrawal.
func (w *Withdrawal) UnmarshalJSON(input []byte) error {
	var dec withdrawalJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	w.Index = uint64(dec.Index)
	w.ValidatorIndex = uint64(dec.ValidatorIndex)
	w.Address = dec.Address
	w.Amount = uint64(dec.Amount)
	return nil
}
