package types

import (
	"fmt"

	"github.com/ethcanon/ethcanon/crypto"
	"github.com/ethcanon/ethcanon/rlp"
)

// Bundle groups pool transactions that must land together in the
// target block. The timestamp bounds steer scheduling only and are
// not part of the storage encoding.
type Bundle struct {
	Txs             []*PoolTx
	BlockNumber     uint64
	MinTimestamp    *uint64
	MaxTimestamp    *uint64
	UUID            string
	RefundPercent   uint64
	RefundRecipient Address
}

// Hash identifies the bundle by the concatenation of its transaction
// hashes.
func (b *Bundle) Hash() Hash {
	buf := make([]byte, 0, len(b.Txs)*HashLength)
	for _, tx := range b.Txs {
		buf = append(buf, tx.Hash.Bytes()...)
	}
	return Hash(crypto.Keccak256Fixed(buf))
}

type bundleRLP struct {
	Txs             [][]byte
	BlockNumber     uint64
	UUID            string
	RefundPercent   uint64
	RefundRecipient Address
}

// EncodeRLP returns the storage encoding of the bundle. Each member
// is carried as its own pool encoding.
func (b *Bundle) EncodeRLP() ([]byte, error) {
	txs := make([][]byte, len(b.Txs))
	for i, tx := range b.Txs {
		enc, err := tx.EncodeRLP()
		if err != nil {
			return nil, err
		}
		txs[i] = enc
	}
	return rlp.EncodeToBytes(bundleRLP{
		Txs:             txs,
		BlockNumber:     b.BlockNumber,
		UUID:            b.UUID,
		RefundPercent:   b.RefundPercent,
		RefundRecipient: b.RefundRecipient,
	})
}

// DecodeBundleRLP decodes a storage encoding, re-deriving the member
// callers and hashes with the given signer.
func DecodeBundleRLP(signer *Signer, b []byte) (*Bundle, error) {
	var enc bundleRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	txs := make([]*PoolTx, len(enc.Txs))
	for i, raw := range enc.Txs {
		tx, err := DecodePoolTxRLP(signer, raw)
		if err != nil {
			return nil, fmt.Errorf("types: bundle tx %d: %w", i, err)
		}
		txs[i] = tx
	}
	return &Bundle{
		Txs:             txs,
		BlockNumber:     enc.BlockNumber,
		UUID:            enc.UUID,
		RefundPercent:   enc.RefundPercent,
		RefundRecipient: enc.RefundRecipient,
	}, nil
}

// Pool item kind tags. The tag byte prefixes the payload so mixed
// streams of transactions and bundles share one storage format.
const (
	PoolItemTx     = 0x01
	PoolItemBundle = 0x02
)

// PoolItem is either a single staged transaction or a bundle.
type PoolItem struct {
	Tx     *PoolTx
	Bundle *Bundle
}

// EncodePoolItem frames a pool item with its kind tag.
func EncodePoolItem(item *PoolItem) ([]byte, error) {
	switch {
	case item.Tx != nil:
		enc, err := item.Tx.EncodeRLP()
		if err != nil {
			return nil, err
		}
		return append([]byte{PoolItemTx}, enc...), nil
	case item.Bundle != nil:
		enc, err := item.Bundle.EncodeRLP()
		if err != nil {
			return nil, err
		}
		return append([]byte{PoolItemBundle}, enc...), nil
	default:
		return nil, fmt.Errorf("types: empty pool item")
	}
}

// DecodePoolItem reads a framed pool item.
func DecodePoolItem(signer *Signer, data []byte) (*PoolItem, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("types: empty pool item")
	}
	switch data[0] {
	case PoolItemTx:
		tx, err := DecodePoolTxRLP(signer, data[1:])
		if err != nil {
			return nil, err
		}
		return &PoolItem{Tx: tx}, nil
	case PoolItemBundle:
		bundle, err := DecodeBundleRLP(signer, data[1:])
		if err != nil {
			return nil, err
		}
		return &PoolItem{Bundle: bundle}, nil
	default:
		return nil, fmt.Errorf("types: unknown pool item kind %d", data[0])
	}
}
