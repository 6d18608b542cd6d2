package types

import (
	"encoding/json"
	"math/big"
)

// RPCTransaction is the JSON-RPC shape of a transaction: the variant
// fields flattened into one record, plus inclusion context when known.
type RPCTransaction struct {
	BlockHash            *Hash
	BlockNumber          *uint64
	From                 *Address
	Gas                  uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Hash                 Hash
	Input                []byte
	Nonce                uint64
	To                   *Address
	TransactionIndex     *uint64
	Value                *big.Int
	Type                 uint64
	AccessList           *AccessList
	ChainID              *big.Int
	V, R, S              *big.Int
}

// ToRPCTransaction projects the transaction into its RPC record.
//
// When a header is given, the record is pinned to that block: the
// block hash and number are filled in, and a dynamic fee transaction
// reports the price it actually pays there, min(feeCap, baseFee+tip).
// Without a header the fee cap stands in for the price.
func (tx *Transaction) ToRPCTransaction(header *Header) *RPCTransaction {
	out := &RPCTransaction{
		Hash:  tx.Hash(),
		Gas:   tx.Gas(),
		Nonce: tx.Nonce(),
		To:    tx.To(),
		Value: tx.Value(),
		Input: tx.Data(),
		Type:  uint64(tx.Type()),
	}
	v, r, s := tx.inner.rawSignatureValues()
	out.V, out.R, out.S = bigCopy(v), bigCopy(r), bigCopy(s)

	switch inner := tx.inner.(type) {
	case *LegacyTx:
		out.GasPrice = bigCopy(bigOrZero(inner.GasPrice))
	case *AccessListTx:
		out.ChainID = bigCopy(bigOrZero(inner.ChainID))
		out.GasPrice = bigCopy(bigOrZero(inner.GasPrice))
		al := tx.AccessList()
		out.AccessList = &al
	case *DynamicFeeTx:
		out.ChainID = bigCopy(bigOrZero(inner.ChainID))
		out.MaxFeePerGas = bigCopy(bigOrZero(inner.GasFeeCap))
		out.MaxPriorityFeePerGas = bigCopy(bigOrZero(inner.GasTipCap))
		var baseFee *big.Int
		if header != nil {
			baseFee = bigOrZero(header.BaseFee)
		}
		out.GasPrice = tx.GasPrice(baseFee)
		al := tx.AccessList()
		out.AccessList = &al
	}

	if header != nil {
		hash := header.Hash()
		out.BlockHash = &hash
		num := bigOrZero(header.Number).Uint64()
		out.BlockNumber = &num
	}
	return out
}

type rpcTransactionJSON struct {
	BlockHash            *Hash       `json:"blockHash"`
	BlockNumber          *HexUint64  `json:"blockNumber"`
	From                 *Address    `json:"from"`
	Gas                  HexUint64   `json:"gas"`
	GasPrice             *HexBig     `json:"gasPrice"`
	MaxFeePerGas         *HexBig     `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *HexBig     `json:"maxPriorityFeePerGas,omitempty"`
	Hash                 Hash        `json:"hash"`
	Input                HexBytes    `json:"input"`
	Nonce                HexUint64   `json:"nonce"`
	To                   *Address    `json:"to"`
	TransactionIndex     *HexUint64  `json:"transactionIndex"`
	Value                *HexBig     `json:"value"`
	Type                 HexUint64   `json:"type"`
	AccessList           *AccessList `json:"accessList,omitempty"`
	ChainID              *HexBig     `json:"chainId,omitempty"`
	V                    *HexBig     `json:"v"`
	R                    *HexBig     `json:"r"`
	S                    *HexBig     `json:"s"`
}

// MarshalJSON encodes the record with camelCase keys and hex
// quantities.
func (r *RPCTransaction) MarshalJSON() ([]byte, error) {
	enc := rpcTransactionJSON{
		BlockHash:            r.BlockHash,
		From:                 r.From,
		Gas:                  HexUint64(r.Gas),
		GasPrice:             bigToHex(r.GasPrice),
		MaxFeePerGas:         bigToHex(r.MaxFeePerGas),
		MaxPriorityFeePerGas: bigToHex(r.MaxPriorityFeePerGas),
		Hash:                 r.Hash,
		Input:                r.Input,
		Nonce:                HexUint64(r.Nonce),
		To:                   r.To,
		Value:                bigToHex(bigOrZero(r.Value)),
		Type:                 HexUint64(r.Type),
		AccessList:           r.AccessList,
		ChainID:              bigToHex(r.ChainID),
		V:                    bigToHex(bigOrZero(r.V)),
		R:                    bigToHex(bigOrZero(r.R)),
		S:                    bigToHex(bigOrZero(r.S)),
	}
	if r.BlockNumber != nil {
		n := HexUint64(*r.BlockNumber)
		enc.BlockNumber = &n
	}
	if r.TransactionIndex != nil {
		i := HexUint64(*r.TransactionIndex)
		enc.TransactionIndex = &i
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes the RPC record.
func (r *RPCTransaction) UnmarshalJSON(input []byte) error {
	var dec rpcTransactionJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	r.BlockHash = dec.BlockHash
	r.From = dec.From
	r.Gas = uint64(dec.Gas)
	r.GasPrice = dec.GasPrice.toBig()
	r.MaxFeePerGas = dec.MaxFeePerGas.toBig()
	r.MaxPriorityFeePerGas = dec.MaxPriorityFeePerGas.toBig()
	r.Hash = dec.Hash
	r.Input = dec.Input
	r.Nonce = uint64(dec.Nonce)
	r.To = dec.To
	r.Value = dec.Value.toBig()
	r.Type = uint64(dec.Type)
	r.AccessList = dec.AccessList
	r.ChainID = dec.ChainID.toBig()
	r.V = dec.V.toBig()
	r.R = dec.R.toBig()
	r.S = dec.S.toBig()
	if dec.BlockNumber != nil {
		n := uint64(*dec.BlockNumber)
		r.BlockNumber = &n
	}
	if dec.TransactionIndex != nil {
		i := uint64(*dec.TransactionIndex)
		r.TransactionIndex = &i
	}
	return nil
}
