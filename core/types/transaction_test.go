package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

// The EIP-155 example transaction: nonce 9, gasPrice 20 gwei, gas
// 21000, to 0x3535...35, value 1 ether, signed on chain 1 with v 37.
const eip155RawTx = "f86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDecodeLegacyTx(t *testing.T) {
	tx, err := DecodeTxRLP(mustHex(t, eip155RawTx))
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type() != LegacyTxType {
		t.Fatalf("type %d", tx.Type())
	}
	if tx.Nonce() != 9 {
		t.Fatalf("nonce %d", tx.Nonce())
	}
	if tx.Gas() != 21000 {
		t.Fatalf("gas %d", tx.Gas())
	}
	wantPrice := big.NewInt(20_000_000_000)
	if tx.GasPrice(nil).Cmp(wantPrice) != 0 {
		t.Fatalf("gasPrice %v", tx.GasPrice(nil))
	}
	wantValue, _ := new(big.Int).SetString("1000000000000000000", 10)
	if tx.Value().Cmp(wantValue) != 0 {
		t.Fatalf("value %v", tx.Value())
	}
	if to := tx.To(); to == nil || *to != HexToAddress("0x3535353535353535353535353535353535353535") {
		t.Fatalf("to %v", to)
	}
	if !tx.Protected() {
		t.Fatal("transaction should be replay-protected")
	}
	if tx.ChainID().Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("chain id %v", tx.ChainID())
	}
	v, _, _ := tx.RawSignatureValues()
	if v.Uint64() != 37 {
		t.Fatalf("v %v", v)
	}
}

func TestLegacyTxRoundTrip(t *testing.T) {
	raw := mustHex(t, eip155RawTx)
	tx, err := DecodeTxRLP(raw)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, raw) {
		t.Fatalf("re-encoding mismatch:\n got %x\nwant %x", enc, raw)
	}
}

func TestLegacyTxSigningHash(t *testing.T) {
	tx, err := DecodeTxRLP(mustHex(t, eip155RawTx))
	if err != nil {
		t.Fatal(err)
	}
	got, err := tx.SigningHash(big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	want := HexToHash("0xdaf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53")
	if got != want {
		t.Fatalf("signing hash %x, want %x", got, want)
	}
}

func TestSenderRecoveryEIP155(t *testing.T) {
	tx, err := DecodeTxRLP(mustHex(t, eip155RawTx))
	if err != nil {
		t.Fatal(err)
	}
	signer := NewSigner(big.NewInt(1))
	from, err := signer.Sender(tx)
	if err != nil {
		t.Fatal(err)
	}
	want := HexToAddress("0x9d8A62f656a8d1615C1294fd71e9CFb3E4855A4F")
	if from != want {
		t.Fatalf("sender %x, want %x", from, want)
	}
	// Second call hits the cache.
	again, err := signer.Sender(tx)
	if err != nil || again != want {
		t.Fatalf("cached sender %x %v", again, err)
	}
}

func TestSenderRejectsWrongChain(t *testing.T) {
	tx, err := DecodeTxRLP(mustHex(t, eip155RawTx))
	if err != nil {
		t.Fatal(err)
	}
	// v 37 unwinds to recovery id 0 only under chain id 1.
	signer := NewSigner(big.NewInt(5))
	if _, err := signer.Sender(tx); err == nil {
		t.Fatal("expected recovery failure under wrong chain id")
	}
}

func TestTypedEnvelopePrefix(t *testing.T) {
	to := HexToAddress("0x3535353535353535353535353535353535353535")
	tests := []struct {
		name string
		tx   *Transaction
		want byte
	}{
		{
			"access list",
			NewTransaction(&AccessListTx{
				ChainID: big.NewInt(1), Nonce: 3, GasPrice: big.NewInt(30), Gas: 25000,
				To: &to, Value: big.NewInt(10),
				AccessList: AccessList{{Address: to, StorageKeys: []Hash{{0x01}}}},
			}),
			AccessListTxType,
		},
		{
			"dynamic fee",
			NewTransaction(&DynamicFeeTx{
				ChainID: big.NewInt(1), Nonce: 3, GasTipCap: big.NewInt(2), GasFeeCap: big.NewInt(30),
				Gas: 25000, To: &to, Value: big.NewInt(10),
			}),
			DynamicFeeTxType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.tx.EncodeRLP()
			if err != nil {
				t.Fatal(err)
			}
			if enc[0] != tt.want {
				t.Fatalf("envelope starts with %#x, want %#x", enc[0], tt.want)
			}
			if enc[1] < 0xc0 {
				t.Fatalf("typed payload must be a list, got prefix %#x", enc[1])
			}
			dec, err := DecodeTxRLP(enc)
			if err != nil {
				t.Fatal(err)
			}
			if dec.Cmp(tt.tx) != 0 {
				t.Fatal("round trip changed the envelope")
			}
			if dec.Hash() != tt.tx.Hash() {
				t.Fatal("round trip changed the hash")
			}
		})
	}
}

func TestDecodeUnknownTxType(t *testing.T) {
	_, err := DecodeTxRLP([]byte{0x03, 0xc0})
	if !errors.Is(err, ErrTxTypeNotSupported) {
		t.Fatalf("got %v, want ErrTxTypeNotSupported", err)
	}
}

func TestSigningMessageShapes(t *testing.T) {
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	legacy := NewTransaction(&LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, To: &to, Value: big.NewInt(0)})

	// Unsigned v is zero, a homestead value, so the message has six fields.
	msg, err := legacy.SigningMessage(big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if msg[0] < 0xc0 {
		t.Fatalf("legacy message must be a bare list, got prefix %#x", msg[0])
	}
	unprotectedLen := len(msg)

	// A protected v extends the message with the chain id and two zeros.
	protected := legacy.WithSignature(nil, big.NewInt(37), big.NewInt(1), big.NewInt(1))
	pmsg, err := protected.SigningMessage(big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(pmsg) != unprotectedLen+3 {
		t.Fatalf("protected message length %d, want %d", len(pmsg), unprotectedLen+3)
	}
	if !bytes.Equal(pmsg[len(pmsg)-3:], []byte{0x01, 0x80, 0x80}) {
		t.Fatalf("protected message tail %x, want 018080", pmsg[len(pmsg)-3:])
	}

	// Typed messages carry the type byte.
	dyn := NewTransaction(&DynamicFeeTx{ChainID: big.NewInt(1), Nonce: 1, GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(2), Gas: 21000, To: &to})
	dmsg, err := dyn.SigningMessage(big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if dmsg[0] != DynamicFeeTxType {
		t.Fatalf("dynamic fee message starts with %#x", dmsg[0])
	}
}

func TestGasPriceDynamicFee(t *testing.T) {
	tx := NewTransaction(&DynamicFeeTx{
		ChainID: big.NewInt(1), GasTipCap: big.NewInt(2), GasFeeCap: big.NewInt(30), Gas: 21000,
	})
	tests := []struct {
		name    string
		baseFee *big.Int
		want    int64
	}{
		{"no base fee", nil, 30},
		{"base plus tip below cap", big.NewInt(10), 12},
		{"capped", big.NewInt(29), 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tx.GasPrice(tt.baseFee); got.Int64() != tt.want {
				t.Fatalf("got %v, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectiveGasTip(t *testing.T) {
	tx := NewTransaction(&DynamicFeeTx{
		ChainID: big.NewInt(1), GasTipCap: big.NewInt(2), GasFeeCap: big.NewInt(30), Gas: 21000,
	})
	if tip := tx.EffectiveGasTip(big.NewInt(10)); tip.Int64() != 2 {
		t.Fatalf("tip %v, want 2", tip)
	}
	if tip := tx.EffectiveGasTip(big.NewInt(29)); tip.Int64() != 1 {
		t.Fatalf("tip %v, want 1", tip)
	}
	if tip := tx.EffectiveGasTip(big.NewInt(31)); tip != nil {
		t.Fatalf("tip %v, want nil for underpriced transaction", tip)
	}
}

func TestContractCreationEncoding(t *testing.T) {
	tx := NewTransaction(&LegacyTx{Nonce: 0, GasPrice: big.NewInt(1), Gas: 53000, Data: []byte{0x60, 0x00}})
	enc, err := tx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeTxRLP(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.To() != nil {
		t.Fatalf("creation transaction must have nil recipient, got %v", dec.To())
	}
}

func TestCost(t *testing.T) {
	to := HexToAddress("0x0000000000000000000000000000000000001234")
	tx := NewTransaction(&LegacyTx{GasPrice: big.NewInt(3), Gas: 100, To: &to, Value: big.NewInt(50)})
	if cost := tx.Cost(nil); cost.Int64() != 350 {
		t.Fatalf("cost %v, want 350", cost)
	}
}
