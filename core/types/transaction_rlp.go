package types

import (
	"fmt"
	"math/big"

	"github.com/ethcanon/ethcanon/crypto"
	"github.com/ethcanon/ethcanon/rlp"
)

func keccak(data ...[]byte) []byte { return crypto.Keccak256(data...) }

// Canonical wire layouts. The To field is a byte string so that nil
// (contract creation) encodes as the empty string.

type legacyTxRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       []byte
	Value    *big.Int
	Data     []byte
	V        *big.Int
	R        *big.Int
	S        *big.Int
}

type accessListTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         []byte
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V          *big.Int
	R          *big.Int
	S          *big.Int
}

type dynamicFeeTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         []byte
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V          *big.Int
	R          *big.Int
	S          *big.Int
}

type accessTupleRLP struct {
	Address     Address
	StorageKeys []Hash
}

func accessListToRLP(al AccessList) []accessTupleRLP {
	out := make([]accessTupleRLP, len(al))
	for i, tuple := range al {
		out[i] = accessTupleRLP{Address: tuple.Address, StorageKeys: tuple.StorageKeys}
	}
	return out
}

func accessListFromRLP(enc []accessTupleRLP) AccessList {
	if len(enc) == 0 {
		return AccessList{}
	}
	out := make(AccessList, len(enc))
	for i, tuple := range enc {
		out[i] = AccessTuple{Address: tuple.Address, StorageKeys: tuple.StorageKeys}
	}
	return out
}

func addressPtrToBytes(a *Address) []byte {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

func bytesToAddressPtr(b []byte) (*Address, error) {
	switch len(b) {
	case 0:
		return nil, nil
	case AddressLength:
		a := BytesToAddress(b)
		return &a, nil
	default:
		return nil, fmt.Errorf("types: invalid recipient length %d", len(b))
	}
}

// EncodeRLP returns the canonical envelope of the transaction. Legacy
// transactions are a bare RLP list; typed transactions are the type
// byte followed by the RLP list of their payload.
func (tx *Transaction) EncodeRLP() ([]byte, error) {
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		return rlp.EncodeToBytes(legacyTxRLP{
			Nonce:    inner.Nonce,
			GasPrice: bigOrZero(inner.GasPrice),
			Gas:      inner.Gas,
			To:       addressPtrToBytes(inner.To),
			Value:    bigOrZero(inner.Value),
			Data:     inner.Data,
			V:        bigOrZero(inner.V),
			R:        bigOrZero(inner.R),
			S:        bigOrZero(inner.S),
		})
	case *AccessListTx:
		return encodeTypedTx(AccessListTxType, accessListTxRLP{
			ChainID:    bigOrZero(inner.ChainID),
			Nonce:      inner.Nonce,
			GasPrice:   bigOrZero(inner.GasPrice),
			Gas:        inner.Gas,
			To:         addressPtrToBytes(inner.To),
			Value:      bigOrZero(inner.Value),
			Data:       inner.Data,
			AccessList: accessListToRLP(inner.AccessList),
			V:          bigOrZero(inner.V),
			R:          bigOrZero(inner.R),
			S:          bigOrZero(inner.S),
		})
	case *DynamicFeeTx:
		return encodeTypedTx(DynamicFeeTxType, dynamicFeeTxRLP{
			ChainID:    bigOrZero(inner.ChainID),
			Nonce:      inner.Nonce,
			GasTipCap:  bigOrZero(inner.GasTipCap),
			GasFeeCap:  bigOrZero(inner.GasFeeCap),
			Gas:        inner.Gas,
			To:         addressPtrToBytes(inner.To),
			Value:      bigOrZero(inner.Value),
			Data:       inner.Data,
			AccessList: accessListToRLP(inner.AccessList),
			V:          bigOrZero(inner.V),
			R:          bigOrZero(inner.R),
			S:          bigOrZero(inner.S),
		})
	default:
		return nil, ErrTxTypeNotSupported
	}
}

// encodeTypedTx prepends the type byte to the RLP payload.
func encodeTypedTx(txType byte, payload interface{}) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(enc))
	out = append(out, txType)
	return append(out, enc...), nil
}

// DecodeTxRLP decodes a canonical transaction envelope. The first byte
// dispatches: a list prefix means a legacy transaction, a recognized
// type byte introduces a typed payload.
func DecodeTxRLP(b []byte) (*Transaction, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("types: empty transaction bytes")
	}
	if b[0] >= 0xc0 {
		return decodeLegacyTx(b)
	}
	switch b[0] {
	case AccessListTxType:
		return decodeAccessListTx(b[1:])
	case DynamicFeeTxType:
		return decodeDynamicFeeTx(b[1:])
	default:
		return nil, fmt.Errorf("%w: type %#x", ErrTxTypeNotSupported, b[0])
	}
}

func decodeLegacyTx(b []byte) (*Transaction, error) {
	var enc legacyTxRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	to, err := bytesToAddressPtr(enc.To)
	if err != nil {
		return nil, err
	}
	return &Transaction{inner: &LegacyTx{
		Nonce:    enc.Nonce,
		GasPrice: enc.GasPrice,
		Gas:      enc.Gas,
		To:       to,
		Value:    enc.Value,
		Data:     enc.Data,
		V:        enc.V,
		R:        enc.R,
		S:        enc.S,
	}}, nil
}

func decodeAccessListTx(b []byte) (*Transaction, error) {
	var enc accessListTxRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	to, err := bytesToAddressPtr(enc.To)
	if err != nil {
		return nil, err
	}
	return &Transaction{inner: &AccessListTx{
		ChainID:    enc.ChainID,
		Nonce:      enc.Nonce,
		GasPrice:   enc.GasPrice,
		Gas:        enc.Gas,
		To:         to,
		Value:      enc.Value,
		Data:       enc.Data,
		AccessList: accessListFromRLP(enc.AccessList),
		V:          enc.V,
		R:          enc.R,
		S:          enc.S,
	}}, nil
}

func decodeDynamicFeeTx(b []byte) (*Transaction, error) {
	var enc dynamicFeeTxRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	to, err := bytesToAddressPtr(enc.To)
	if err != nil {
		return nil, err
	}
	return &Transaction{inner: &DynamicFeeTx{
		ChainID:    enc.ChainID,
		Nonce:      enc.Nonce,
		GasTipCap:  enc.GasTipCap,
		GasFeeCap:  enc.GasFeeCap,
		Gas:        enc.Gas,
		To:         to,
		Value:      enc.Value,
		Data:       enc.Data,
		AccessList: accessListFromRLP(enc.AccessList),
		V:          enc.V,
		R:          enc.R,
		S:          enc.S,
	}}, nil
}

// SigningMessage builds the byte string whose keccak256 is signed.
//
// Typed transactions always sign the type byte followed by the list of
// unsigned payload fields. Legacy transactions sign the six content
// fields, extended with (chainID, 0, 0) when the transaction is
// replay-protected; protection is decided by the stored v value.
func (tx *Transaction) SigningMessage(chainID *big.Int) ([]byte, error) {
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		return legacySigningMessage(inner, chainID)
	case *AccessListTx:
		type unsignedAccessList struct {
			ChainID    *big.Int
			Nonce      uint64
			GasPrice   *big.Int
			Gas        uint64
			To         []byte
			Value      *big.Int
			Data       []byte
			AccessList []accessTupleRLP
		}
		return encodeTypedTx(AccessListTxType, unsignedAccessList{
			ChainID:    bigOrZero(inner.ChainID),
			Nonce:      inner.Nonce,
			GasPrice:   bigOrZero(inner.GasPrice),
			Gas:        inner.Gas,
			To:         addressPtrToBytes(inner.To),
			Value:      bigOrZero(inner.Value),
			Data:       inner.Data,
			AccessList: accessListToRLP(inner.AccessList),
		})
	case *DynamicFeeTx:
		type unsignedDynamicFee struct {
			ChainID    *big.Int
			Nonce      uint64
			GasTipCap  *big.Int
			GasFeeCap  *big.Int
			Gas        uint64
			To         []byte
			Value      *big.Int
			Data       []byte
			AccessList []accessTupleRLP
		}
		return encodeTypedTx(DynamicFeeTxType, unsignedDynamicFee{
			ChainID:    bigOrZero(inner.ChainID),
			Nonce:      inner.Nonce,
			GasTipCap:  bigOrZero(inner.GasTipCap),
			GasFeeCap:  bigOrZero(inner.GasFeeCap),
			Gas:        inner.Gas,
			To:         addressPtrToBytes(inner.To),
			Value:      bigOrZero(inner.Value),
			Data:       inner.Data,
			AccessList: accessListToRLP(inner.AccessList),
		})
	default:
		return nil, ErrTxTypeNotSupported
	}
}

func legacySigningMessage(inner *LegacyTx, chainID *big.Int) ([]byte, error) {
	if isHomesteadV(bigOrZero(inner.V)) {
		return legacyHomesteadMessage(inner)
	}
	return legacyProtectedMessage(inner, chainID)
}

// legacyHomesteadMessage is the pre-EIP-155 six field message, used
// when the stored v carries no replay protection.
func legacyHomesteadMessage(inner *LegacyTx) ([]byte, error) {
	type unsignedLegacy struct {
		Nonce    uint64
		GasPrice *big.Int
		Gas      uint64
		To       []byte
		Value    *big.Int
		Data     []byte
	}
	return rlp.EncodeToBytes(unsignedLegacy{
		Nonce:    inner.Nonce,
		GasPrice: bigOrZero(inner.GasPrice),
		Gas:      inner.Gas,
		To:       addressPtrToBytes(inner.To),
		Value:    bigOrZero(inner.Value),
		Data:     inner.Data,
	})
}

// legacyProtectedMessage is the EIP-155 nine field message with the
// chain id and two empty trailing elements.
func legacyProtectedMessage(inner *LegacyTx, chainID *big.Int) ([]byte, error) {
	type unsignedProtected struct {
		Nonce    uint64
		GasPrice *big.Int
		Gas      uint64
		To       []byte
		Value    *big.Int
		Data     []byte
		ChainID  *big.Int
		Zero1    uint8
		Zero2    uint8
	}
	return rlp.EncodeToBytes(unsignedProtected{
		Nonce:    inner.Nonce,
		GasPrice: bigOrZero(inner.GasPrice),
		Gas:      inner.Gas,
		To:       addressPtrToBytes(inner.To),
		Value:    bigOrZero(inner.Value),
		Data:     inner.Data,
		ChainID:  bigOrZero(chainID),
	})
}

// SigningHash is the keccak256 of the signing message.
func (tx *Transaction) SigningHash(chainID *big.Int) (Hash, error) {
	msg, err := tx.SigningMessage(chainID)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(keccak(msg)), nil
}
