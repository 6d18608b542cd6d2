package types

import (
	"math/big"
	"testing"
)

func stagedTestTx(t *testing.T) (*PoolTx, *Signer) {
	t.Helper()
	tx, signer := signedTestTx(t)
	acl := AccessList{{Address: HexToAddress("0x01"), StorageKeys: []Hash{HexToHash("0x0a")}}}
	ptx, err := NewPoolTxWithACL(signer, tx, acl, 21000, 100, "ok", false)
	if err != nil {
		t.Fatal(err)
	}
	return ptx, signer
}

func TestNewPoolTxDerivesCallerAndHash(t *testing.T) {
	tx, signer := signedTestTx(t)
	ptx, err := NewPoolTx(signer, tx)
	if err != nil {
		t.Fatal(err)
	}
	from, err := signer.Sender(tx)
	if err != nil {
		t.Fatal(err)
	}
	if ptx.Caller != from {
		t.Fatalf("caller %x, want %x", ptx.Caller, from)
	}
	if ptx.Hash != tx.Hash() {
		t.Fatal("pool hash must pin the transaction hash")
	}
	if !ptx.AllowRevert {
		t.Fatal("bare staging defaults to allowing reverts")
	}
}

func TestPoolTxRLPRoundTrip(t *testing.T) {
	ptx, signer := stagedTestTx(t)
	enc, err := ptx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodePoolTxRLP(signer, enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Caller != ptx.Caller || dec.Hash != ptx.Hash {
		t.Fatal("decoding must re-derive caller and hash")
	}
	if dec.Gas != ptx.Gas || dec.Block != ptx.Block || dec.Result != ptx.Result ||
		dec.AllowRevert != ptx.AllowRevert {
		t.Fatalf("metadata mismatch: %+v", dec)
	}
	if len(dec.AccessList) != 1 || dec.AccessList[0].Address != ptx.AccessList[0].Address {
		t.Fatalf("access list mismatch: %+v", dec.AccessList)
	}
	if dec.Tx.Cmp(ptx.Tx) != 0 {
		t.Fatal("inner transaction changed")
	}
}

func TestBundleHash(t *testing.T) {
	ptx, _ := stagedTestTx(t)
	b1 := &Bundle{Txs: []*PoolTx{ptx}, BlockNumber: 100}
	b2 := &Bundle{Txs: []*PoolTx{ptx, ptx}, BlockNumber: 100}
	if b1.Hash() == (Hash{}) {
		t.Fatal("bundle hash must not be zero")
	}
	if b1.Hash() == b2.Hash() {
		t.Fatal("different member sets must hash differently")
	}
}

func TestBundleRLPRoundTrip(t *testing.T) {
	ptx, signer := stagedTestTx(t)
	min, max := uint64(10), uint64(20)
	b := &Bundle{
		Txs:             []*PoolTx{ptx},
		BlockNumber:     100,
		MinTimestamp:    &min,
		MaxTimestamp:    &max,
		UUID:            "2b5bb2ce-e0a5-4b55-b5b9-2d37cbe54f8d",
		RefundPercent:   40,
		RefundRecipient: HexToAddress("0x0def"),
	}
	enc, err := b.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeBundleRLP(signer, enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.BlockNumber != b.BlockNumber || dec.UUID != b.UUID ||
		dec.RefundPercent != b.RefundPercent || dec.RefundRecipient != b.RefundRecipient {
		t.Fatalf("metadata mismatch: %+v", dec)
	}
	if dec.MinTimestamp != nil || dec.MaxTimestamp != nil {
		t.Fatal("timestamp bounds are scheduling hints and must not survive encoding")
	}
	if len(dec.Txs) != 1 || dec.Txs[0].Hash != ptx.Hash {
		t.Fatal("bundle members changed")
	}
	if dec.Hash() != b.Hash() {
		t.Fatal("bundle hash changed across the round trip")
	}
}

func TestPoolItemFraming(t *testing.T) {
	ptx, signer := stagedTestTx(t)
	bundle := &Bundle{Txs: []*PoolTx{ptx}, BlockNumber: 100}

	txFrame, err := EncodePoolItem(&PoolItem{Tx: ptx})
	if err != nil {
		t.Fatal(err)
	}
	if txFrame[0] != PoolItemTx {
		t.Fatalf("tx frame tag %#x", txFrame[0])
	}
	item, err := DecodePoolItem(signer, txFrame)
	if err != nil {
		t.Fatal(err)
	}
	if item.Tx == nil || item.Tx.Hash != ptx.Hash {
		t.Fatal("tx frame did not round trip")
	}

	bundleFrame, err := EncodePoolItem(&PoolItem{Bundle: bundle})
	if err != nil {
		t.Fatal(err)
	}
	if bundleFrame[0] != PoolItemBundle {
		t.Fatalf("bundle frame tag %#x", bundleFrame[0])
	}
	item, err = DecodePoolItem(signer, bundleFrame)
	if err != nil {
		t.Fatal(err)
	}
	if item.Bundle == nil || item.Bundle.Hash() != bundle.Hash() {
		t.Fatal("bundle frame did not round trip")
	}

	if _, err := DecodePoolItem(signer, []byte{0x09}); err == nil {
		t.Fatal("unknown frame tag must fail")
	}
	if _, err := DecodePoolItem(signer, nil); err == nil {
		t.Fatal("empty frame must fail")
	}
	if _, err := EncodePoolItem(&PoolItem{}); err == nil {
		t.Fatal("empty item must fail")
	}
}

func TestDecodePoolTxWrongSigner(t *testing.T) {
	ptx, _ := stagedTestTx(t)
	enc, err := ptx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	other := NewSigner(big.NewInt(1))
	if _, err := DecodePoolTxRLP(other, enc); err == nil {
		t.Fatal("decoding under the wrong chain must fail sender recovery")
	}
}
