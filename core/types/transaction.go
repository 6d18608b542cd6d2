package types

import (
	"bytes"
	"errors"
	"math/big"
	"sync/atomic"
)

// Transaction type identifiers. The type byte of a typed envelope.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
)

var (
	// ErrTxTypeNotSupported is returned when decoding an envelope with
	// an unknown type byte.
	ErrTxTypeNotSupported = errors.New("types: transaction type not supported")

	// ErrInvalidSig is returned when signature values fail validation.
	ErrInvalidSig = errors.New("types: invalid transaction v, r, s values")
)

// AccessTuple is one entry of an access list: an address and the
// storage keys warmed for it.
type AccessTuple struct {
	Address     Address `json:"address"`
	StorageKeys []Hash  `json:"storageKeys"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// TxData is the payload of one transaction variant. The wrapper type
// Transaction carries caches around it.
type TxData interface {
	txType() byte
	copy() TxData

	chainID() *big.Int
	accessList() AccessList
	data() []byte
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	value() *big.Int
	nonce() uint64
	to() *Address

	rawSignatureValues() (v, r, s *big.Int)
	setSignatureValues(chainID, v, r, s *big.Int)
}

// Transaction wraps one of the transaction variants together with
// lazily computed hash and sender caches.
type Transaction struct {
	inner TxData

	hash atomic.Pointer[Hash]
	from atomic.Pointer[senderCache]
}

// senderCache remembers the recovered sender together with the chain id
// the recovering signer was bound to. A signer with a different chain
// id must not reuse the cached value.
type senderCache struct {
	chainID *big.Int
	from    Address
}

// NewTransaction wraps a deep copy of inner.
func NewTransaction(inner TxData) *Transaction {
	tx := new(Transaction)
	tx.inner = inner.copy()
	return tx
}

// Type returns the transaction type identifier.
func (tx *Transaction) Type() byte { return tx.inner.txType() }

// ChainID returns the declared chain id for typed transactions and the
// chain id derived from v for protected legacy transactions. It is nil
// for unprotected legacy transactions.
func (tx *Transaction) ChainID() *big.Int { return tx.inner.chainID() }

// Nonce returns the sender account nonce.
func (tx *Transaction) Nonce() uint64 { return tx.inner.nonce() }

// Gas returns the gas limit.
func (tx *Transaction) Gas() uint64 { return tx.inner.gas() }

// To returns the recipient, or nil for contract creation.
func (tx *Transaction) To() *Address {
	if t := tx.inner.to(); t != nil {
		cpy := *t
		return &cpy
	}
	return nil
}

// Value returns the transferred amount in wei.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.inner.value()) }

// Data returns the call input.
func (tx *Transaction) Data() []byte { return append([]byte(nil), tx.inner.data()...) }

// AccessList returns the access list, nil for legacy transactions.
func (tx *Transaction) AccessList() AccessList { return tx.inner.accessList() }

// GasTipCap returns maxPriorityFeePerGas. For pre-1559 variants this is
// the fixed gas price.
func (tx *Transaction) GasTipCap() *big.Int { return new(big.Int).Set(tx.inner.gasTipCap()) }

// GasFeeCap returns maxFeePerGas. For pre-1559 variants this is the
// fixed gas price.
func (tx *Transaction) GasFeeCap() *big.Int { return new(big.Int).Set(tx.inner.gasFeeCap()) }

// RawSignatureValues returns the v, r, s values of the transaction.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.inner.rawSignatureValues()
}

// GasPrice returns the price charged per gas unit. For dynamic fee
// transactions the price depends on the block base fee: it is
// min(feeCap, baseFee+tip), or the fee cap when no base fee is known.
func (tx *Transaction) GasPrice(baseFee *big.Int) *big.Int {
	if tx.Type() != DynamicFeeTxType {
		return new(big.Int).Set(tx.inner.gasPrice())
	}
	feeCap := tx.inner.gasFeeCap()
	if baseFee == nil {
		return new(big.Int).Set(feeCap)
	}
	price := new(big.Int).Add(baseFee, tx.inner.gasTipCap())
	if price.Cmp(feeCap) > 0 {
		price.Set(feeCap)
	}
	return price
}

// EffectiveGasTip returns the miner tip per gas unit under the given
// base fee: min(tipCap, feeCap-baseFee). It returns nil when the fee
// cap is below the base fee, meaning the transaction cannot be
// included.
func (tx *Transaction) EffectiveGasTip(baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return tx.GasTipCap()
	}
	feeCap := tx.inner.gasFeeCap()
	if feeCap.Cmp(baseFee) < 0 {
		return nil
	}
	tip := new(big.Int).Sub(feeCap, baseFee)
	if tipCap := tx.inner.gasTipCap(); tip.Cmp(tipCap) > 0 {
		tip.Set(tipCap)
	}
	return tip
}

// Cost returns gasLimit * gasPrice(baseFee) + value, the maximum wei
// the transaction can spend.
func (tx *Transaction) Cost(baseFee *big.Int) *big.Int {
	total := new(big.Int).SetUint64(tx.Gas())
	total.Mul(total, tx.GasPrice(baseFee))
	return total.Add(total, tx.inner.value())
}

// Protected reports whether the transaction is replay-protected.
// Typed transactions always are; legacy transactions are when v is not
// one of the homestead values 0, 1, 27, 28.
func (tx *Transaction) Protected() bool {
	if tx.Type() != LegacyTxType {
		return true
	}
	v, _, _ := tx.inner.rawSignatureValues()
	return !isHomesteadV(bigOrZero(v))
}

func isHomesteadV(v *big.Int) bool {
	if !v.IsUint64() {
		return false
	}
	switch v.Uint64() {
	case 0, 1, 27, 28:
		return true
	}
	return false
}

// Hash returns the transaction hash, the keccak256 of the canonical
// envelope. The value is computed once and cached.
func (tx *Transaction) Hash() Hash {
	if h := tx.hash.Load(); h != nil {
		return *h
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		return Hash{}
	}
	h := BytesToHash(keccak(enc))
	tx.hash.Store(&h)
	return h
}

// Cmp orders transactions by their canonical envelope bytes. Two
// transactions are equal exactly when their envelopes are identical.
func (tx *Transaction) Cmp(other *Transaction) int {
	a, _ := tx.EncodeRLP()
	b, _ := other.EncodeRLP()
	return bytes.Compare(a, b)
}

// WithSignature returns a copy of the transaction carrying the given
// signature values. chainID is stored into typed payloads.
func (tx *Transaction) WithSignature(chainID, v, r, s *big.Int) *Transaction {
	cpy := tx.inner.copy()
	cpy.setSignatureValues(chainID, v, r, s)
	return &Transaction{inner: cpy}
}

// LegacyTx is the original transaction format, optionally
// replay-protected per EIP-155.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *Address // nil means contract creation
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (tx *LegacyTx) txType() byte { return LegacyTxType }

func (tx *LegacyTx) copy() TxData {
	cpy := &LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: bigCopy(tx.GasPrice),
		Gas:      tx.Gas,
		To:       addressCopy(tx.To),
		Value:    bigCopy(tx.Value),
		Data:     append([]byte(nil), tx.Data...),
		V:        bigCopy(tx.V),
		R:        bigCopy(tx.R),
		S:        bigCopy(tx.S),
	}
	return cpy
}

// chainID derives the chain id from v for protected transactions:
// chainID = (v - 35) / 2. Unprotected transactions have none.
func (tx *LegacyTx) chainID() *big.Int {
	v := tx.V
	if v == nil || isHomesteadV(v) || v.Cmp(big.NewInt(35)) < 0 {
		return nil
	}
	id := new(big.Int).Sub(v, big.NewInt(35))
	return id.Rsh(id, 1)
}

func (tx *LegacyTx) accessList() AccessList { return nil }
func (tx *LegacyTx) data() []byte           { return tx.Data }
func (tx *LegacyTx) gas() uint64            { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int     { return bigOrZero(tx.GasPrice) }
func (tx *LegacyTx) gasTipCap() *big.Int    { return bigOrZero(tx.GasPrice) }
func (tx *LegacyTx) gasFeeCap() *big.Int    { return bigOrZero(tx.GasPrice) }
func (tx *LegacyTx) value() *big.Int        { return bigOrZero(tx.Value) }
func (tx *LegacyTx) nonce() uint64          { return tx.Nonce }
func (tx *LegacyTx) to() *Address           { return tx.To }

func (tx *LegacyTx) rawSignatureValues() (v, r, s *big.Int) {
	return bigOrZero(tx.V), bigOrZero(tx.R), bigOrZero(tx.S)
}

func (tx *LegacyTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}

// AccessListTx is the EIP-2930 transaction with a declared chain id and
// an access list.
type AccessListTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         *Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *AccessListTx) txType() byte { return AccessListTxType }

func (tx *AccessListTx) copy() TxData {
	return &AccessListTx{
		ChainID:    bigCopy(tx.ChainID),
		Nonce:      tx.Nonce,
		GasPrice:   bigCopy(tx.GasPrice),
		Gas:        tx.Gas,
		To:         addressCopy(tx.To),
		Value:      bigCopy(tx.Value),
		Data:       append([]byte(nil), tx.Data...),
		AccessList: copyAccessList(tx.AccessList),
		V:          bigCopy(tx.V),
		R:          bigCopy(tx.R),
		S:          bigCopy(tx.S),
	}
}

func (tx *AccessListTx) chainID() *big.Int      { return bigOrZero(tx.ChainID) }
func (tx *AccessListTx) accessList() AccessList { return tx.AccessList }
func (tx *AccessListTx) data() []byte           { return tx.Data }
func (tx *AccessListTx) gas() uint64            { return tx.Gas }
func (tx *AccessListTx) gasPrice() *big.Int     { return bigOrZero(tx.GasPrice) }
func (tx *AccessListTx) gasTipCap() *big.Int    { return bigOrZero(tx.GasPrice) }
func (tx *AccessListTx) gasFeeCap() *big.Int    { return bigOrZero(tx.GasPrice) }
func (tx *AccessListTx) value() *big.Int        { return bigOrZero(tx.Value) }
func (tx *AccessListTx) nonce() uint64          { return tx.Nonce }
func (tx *AccessListTx) to() *Address           { return tx.To }

func (tx *AccessListTx) rawSignatureValues() (v, r, s *big.Int) {
	return bigOrZero(tx.V), bigOrZero(tx.R), bigOrZero(tx.S)
}

func (tx *AccessListTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

// DynamicFeeTx is the EIP-1559 transaction with a fee cap and a
// priority tip instead of a fixed gas price.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int // maxPriorityFeePerGas
	GasFeeCap  *big.Int // maxFeePerGas
	Gas        uint64
	To         *Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *DynamicFeeTx) txType() byte { return DynamicFeeTxType }

func (tx *DynamicFeeTx) copy() TxData {
	return &DynamicFeeTx{
		ChainID:    bigCopy(tx.ChainID),
		Nonce:      tx.Nonce,
		GasTipCap:  bigCopy(tx.GasTipCap),
		GasFeeCap:  bigCopy(tx.GasFeeCap),
		Gas:        tx.Gas,
		To:         addressCopy(tx.To),
		Value:      bigCopy(tx.Value),
		Data:       append([]byte(nil), tx.Data...),
		AccessList: copyAccessList(tx.AccessList),
		V:          bigCopy(tx.V),
		R:          bigCopy(tx.R),
		S:          bigCopy(tx.S),
	}
}

func (tx *DynamicFeeTx) chainID() *big.Int      { return bigOrZero(tx.ChainID) }
func (tx *DynamicFeeTx) accessList() AccessList { return tx.AccessList }
func (tx *DynamicFeeTx) data() []byte           { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64            { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *big.Int     { return bigOrZero(tx.GasFeeCap) }
func (tx *DynamicFeeTx) gasTipCap() *big.Int    { return bigOrZero(tx.GasTipCap) }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int    { return bigOrZero(tx.GasFeeCap) }
func (tx *DynamicFeeTx) value() *big.Int        { return bigOrZero(tx.Value) }
func (tx *DynamicFeeTx) nonce() uint64          { return tx.Nonce }
func (tx *DynamicFeeTx) to() *Address           { return tx.To }

func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) {
	return bigOrZero(tx.V), bigOrZero(tx.R), bigOrZero(tx.S)
}

func (tx *DynamicFeeTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

func bigCopy(i *big.Int) *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set(i)
}

func bigOrZero(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return i
}

func addressCopy(a *Address) *Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func copyAccessList(al AccessList) AccessList {
	if al == nil {
		return nil
	}
	cpy := make(AccessList, len(al))
	for i, tuple := range al {
		cpy[i] = AccessTuple{
			Address:     tuple.Address,
			StorageKeys: append([]Hash(nil), tuple.StorageKeys...),
		}
	}
	return cpy
}
