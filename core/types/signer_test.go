package types

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethcanon/ethcanon/crypto"
)

func newTestKey(t *testing.T) (*ecdsa.PrivateKey, Address) {
	t.Helper()
	d, _ := new(big.Int).SetString("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291", 16)
	prv := new(ecdsa.PrivateKey)
	prv.Curve = crypto.S256()
	prv.D = d
	prv.X, prv.Y = crypto.S256().ScalarBaseMult(d.Bytes())
	return prv, Address(crypto.PubkeyToAddressBytes(&prv.PublicKey))
}

func TestSignTxRoundTrip(t *testing.T) {
	key, addr := newTestKey(t)
	signer := NewSigner(big.NewInt(1337))
	to := HexToAddress("0x0000000000000000000000000000000000001234")

	txs := map[string]*Transaction{
		"legacy": NewTransaction(&LegacyTx{
			Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to, Value: big.NewInt(5),
		}),
		"access list": NewTransaction(&AccessListTx{
			ChainID: big.NewInt(1337), Nonce: 2, GasPrice: big.NewInt(10), Gas: 30000, To: &to,
			AccessList: AccessList{{Address: to, StorageKeys: []Hash{{0xaa}}}},
		}),
		"dynamic fee": NewTransaction(&DynamicFeeTx{
			ChainID: big.NewInt(1337), Nonce: 3, GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(20),
			Gas: 21000, To: &to, Value: big.NewInt(7),
		}),
	}
	for name, tx := range txs {
		t.Run(name, func(t *testing.T) {
			signed, err := signer.SignTx(tx, key)
			if err != nil {
				t.Fatal(err)
			}
			from, err := signer.Sender(signed)
			if err != nil {
				t.Fatal(err)
			}
			if from != addr {
				t.Fatalf("recovered %x, want %x", from, addr)
			}
			if !signed.Protected() {
				t.Fatal("signed transaction should be replay-protected")
			}
		})
	}
}

func TestSignTxLegacyVEncoding(t *testing.T) {
	key, _ := newTestKey(t)
	chainID := big.NewInt(1337)
	signer := NewSigner(chainID)
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&LegacyTx{Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to})

	signed, err := signer.SignTx(tx, key)
	if err != nil {
		t.Fatal(err)
	}
	v, _, _ := signed.RawSignatureValues()
	lo := 2*chainID.Uint64() + 35
	if vu := v.Uint64(); vu != lo && vu != lo+1 {
		t.Fatalf("v %d not in {%d, %d}", vu, lo, lo+1)
	}
	if signed.ChainID().Cmp(chainID) != 0 {
		t.Fatalf("derived chain id %v, want %v", signed.ChainID(), chainID)
	}
}

func TestSignTxLegacyHomesteadCollidingChainIDs(t *testing.T) {
	// Chain ids that are themselves homestead v values. Signing must
	// still use the protected message, so the stored v and the message
	// the sender recovery rebuilds agree.
	key, addr := newTestKey(t)
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	for _, chainID := range []int64{0, 1, 27, 28} {
		signer := NewSigner(big.NewInt(chainID))
		tx := NewTransaction(&LegacyTx{Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to})
		signed, err := signer.SignTx(tx, key)
		if err != nil {
			t.Fatal(err)
		}
		v, _, _ := signed.RawSignatureValues()
		lo := uint64(2*chainID + 35)
		if vu := v.Uint64(); vu != lo && vu != lo+1 {
			t.Fatalf("chain %d: v %d not in {%d, %d}", chainID, vu, lo, lo+1)
		}
		from, err := signer.Sender(signed)
		if err != nil {
			t.Fatalf("chain %d: %v", chainID, err)
		}
		if from != addr {
			t.Fatalf("chain %d: recovered %x, want %x", chainID, from, addr)
		}
	}
}

func TestSignTxLegacyWideChainID(t *testing.T) {
	// A chain id above 64 bits pushes v outside the uint64 range; the
	// recovery id unwind must not wrap.
	key, addr := newTestKey(t)
	chainID := new(big.Int).Lsh(big.NewInt(1), 64)
	signer := NewSigner(chainID)
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&LegacyTx{Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to})

	signed, err := signer.SignTx(tx, key)
	if err != nil {
		t.Fatal(err)
	}
	v, _, _ := signed.RawSignatureValues()
	if v.IsUint64() {
		t.Fatalf("v %v should exceed 64 bits", v)
	}
	from, err := signer.Sender(signed)
	if err != nil {
		t.Fatal(err)
	}
	if from != addr {
		t.Fatalf("recovered %x, want %x", from, addr)
	}
	// A small v cannot belong to this chain.
	bad := signed.WithSignature(chainID, big.NewInt(37), big.NewInt(1), big.NewInt(1))
	if _, err := signer.Sender(bad); err == nil {
		t.Fatal("v from another chain should not recover")
	}
}

func TestSignTxTypedStoresRawRecoveryID(t *testing.T) {
	key, _ := newTestKey(t)
	signer := NewSigner(big.NewInt(1337))
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&DynamicFeeTx{
		ChainID: big.NewInt(1337), GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(20), Gas: 21000, To: &to,
	})
	signed, err := signer.SignTx(tx, key)
	if err != nil {
		t.Fatal(err)
	}
	v, _, _ := signed.RawSignatureValues()
	if v.Uint64() > 1 {
		t.Fatalf("typed v must be the raw recovery id, got %v", v)
	}
}

func TestSenderChainIDMismatch(t *testing.T) {
	key, _ := newTestKey(t)
	signer := NewSigner(big.NewInt(1337))
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&DynamicFeeTx{
		ChainID: big.NewInt(1337), GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(20), Gas: 21000, To: &to,
	})
	signed, err := signer.SignTx(tx, key)
	if err != nil {
		t.Fatal(err)
	}
	other := NewSigner(big.NewInt(1))
	if _, err := other.Sender(signed); !errors.Is(err, ErrChainIDMismatch) {
		t.Fatalf("got %v, want ErrChainIDMismatch", err)
	}
}

func TestSenderHomesteadV(t *testing.T) {
	key, addr := newTestKey(t)
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	inner := &LegacyTx{Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to}
	tx := NewTransaction(inner)

	// Sign the six-field message by hand and store a 27/28 v, the
	// pre-155 convention.
	msg, err := tx.SigningMessage(nil)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := crypto.Sign(crypto.Keccak256(msg), key)
	if err != nil {
		t.Fatal(err)
	}
	signed := tx.WithSignature(nil,
		big.NewInt(int64(sig[64])+27),
		new(big.Int).SetBytes(sig[:32]),
		new(big.Int).SetBytes(sig[32:64]))

	if signed.Protected() {
		t.Fatal("27/28 v must not count as replay-protected")
	}
	signer := NewSigner(big.NewInt(1337))
	from, err := signer.Sender(signed)
	if err != nil {
		t.Fatal(err)
	}
	if from != addr {
		t.Fatalf("recovered %x, want %x", from, addr)
	}
}

func TestSenderCacheKeyedByChainID(t *testing.T) {
	key, addr := newTestKey(t)
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&LegacyTx{Nonce: 1, GasPrice: big.NewInt(10), Gas: 21000, To: &to})

	signer := NewSigner(big.NewInt(1337))
	signed, err := signer.SignTx(tx, key)
	if err != nil {
		t.Fatal(err)
	}
	if from, err := signer.Sender(signed); err != nil || from != addr {
		t.Fatalf("got %x %v", from, err)
	}
	// A signer for another chain must not reuse the cached sender.
	other := NewSigner(big.NewInt(5))
	if _, err := other.Sender(signed); err == nil {
		t.Fatal("wrong-chain recovery should fail despite the cache")
	}
}
