package types

import (
	"fmt"

	"github.com/ethcanon/ethcanon/rlp"
)

// PoolTx is a transaction staged for inclusion, enriched with the
// recovered caller, the access list derived for it and simulation
// metadata.
type PoolTx struct {
	Caller      Address
	Tx          *Transaction
	AccessList  AccessList
	Hash        Hash
	Gas         uint64
	AllowRevert bool
	Block       uint64
	Result      string
}

// NewPoolTx stages a bare transaction with no derived access list.
func NewPoolTx(signer *Signer, tx *Transaction) (*PoolTx, error) {
	return NewPoolTxWithACL(signer, tx, nil, 0, 0, "", true)
}

// NewPoolTxWithACL stages a transaction with its derived access list
// and simulation results, recovering the caller and pinning the hash.
func NewPoolTxWithACL(signer *Signer, tx *Transaction, acl AccessList, gas, block uint64, result string, allowRevert bool) (*PoolTx, error) {
	caller, err := signer.Sender(tx)
	if err != nil {
		return nil, err
	}
	return &PoolTx{
		Caller:      caller,
		Tx:          tx,
		AccessList:  acl,
		Hash:        tx.Hash(),
		Gas:         gas,
		AllowRevert: allowRevert,
		Block:       block,
		Result:      result,
	}, nil
}

// poolTxRLP is the storage form: the transaction envelope and the
// access list are nested byte strings so the outer layout stays flat.
type poolTxRLP struct {
	Tx          []byte
	AccessList  []byte
	Gas         uint64
	Blk         uint64
	Result      string
	AllowRevert bool
}

// EncodeRLP returns the storage encoding of the pool transaction.
func (p *PoolTx) EncodeRLP() ([]byte, error) {
	txBytes, err := p.Tx.EncodeRLP()
	if err != nil {
		return nil, err
	}
	aclBytes, err := rlp.EncodeToBytes(accessListToRLP(p.AccessList))
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(poolTxRLP{
		Tx:          txBytes,
		AccessList:  aclBytes,
		Gas:         p.Gas,
		Blk:         p.Block,
		Result:      p.Result,
		AllowRevert: p.AllowRevert,
	})
}

// DecodePoolTxRLP decodes a storage encoding, re-deriving the caller
// and hash with the given signer.
func DecodePoolTxRLP(signer *Signer, b []byte) (*PoolTx, error) {
	var enc poolTxRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	tx, err := DecodeTxRLP(enc.Tx)
	if err != nil {
		return nil, err
	}
	var aclRLP []accessTupleRLP
	if err := rlp.DecodeBytes(enc.AccessList, &aclRLP); err != nil {
		return nil, fmt.Errorf("types: pool tx access list: %w", err)
	}
	return NewPoolTxWithACL(signer, tx, accessListFromRLP(aclRLP),
		enc.Gas, enc.Blk, enc.Result, enc.AllowRevert)
}
