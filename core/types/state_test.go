package types

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"
)

func TestStateAccountExists(t *testing.T) {
	if NewStateAccount().Exists() {
		t.Fatal("canonical empty account must not exist")
	}
	withBalance := NewStateAccount()
	withBalance.Balance = big.NewInt(1)
	if !withBalance.Exists() {
		t.Fatal("account with balance exists")
	}
	withNonce := NewStateAccount()
	withNonce.Nonce = 1
	if !withNonce.Exists() {
		t.Fatal("account with nonce exists")
	}
}

func TestStateAccountBytesRoundTrip(t *testing.T) {
	empty := NewStateAccount()
	b, err := empty.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if b != nil {
		t.Fatalf("empty account encodes to nil, got %x", b)
	}
	back, err := StateAccountFromBytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.Exists() {
		t.Fatal("nil bytes decode to the empty account")
	}

	acct := &StateAccount{
		Nonce:    7,
		Balance:  big.NewInt(1000),
		Root:     HexToHash("0x05"),
		CodeHash: HexToHash("0x06"),
	}
	enc, err := acct.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := StateAccountFromBytes(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Nonce != acct.Nonce || dec.Balance.Cmp(acct.Balance) != 0 ||
		dec.Root != acct.Root || dec.CodeHash != acct.CodeHash {
		t.Fatalf("round trip mismatch: %+v", dec)
	}
}

func TestAccessListResultEnsure(t *testing.T) {
	caller := HexToAddress("0x01")
	to := HexToAddress("0x02")
	var r AccessListResult
	r.Ensure(caller, &to)
	if len(r.AccessList) != 2 {
		t.Fatalf("list length %d", len(r.AccessList))
	}
	// A second Ensure must not duplicate entries.
	r.Ensure(caller, &to)
	if len(r.AccessList) != 2 {
		t.Fatalf("list length %d after repeat", len(r.AccessList))
	}
	tuple := r.GetOrInsert(caller)
	tuple.StorageKeys = append(tuple.StorageKeys, HexToHash("0xaa"))
	if len(r.AccessList[0].StorageKeys) != 1 {
		t.Fatal("GetOrInsert must return a pointer into the list")
	}
}

func TestAccessListResultJSONNormalizesNil(t *testing.T) {
	enc, err := json.Marshal(AccessListResult{GasUsed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(enc), `"accessList":[]`) {
		t.Fatalf("nil list must serialize as empty: %s", enc)
	}
	if !strings.Contains(string(enc), `"gasUsed":"0x5"`) {
		t.Fatalf("gasUsed must be a hex quantity: %s", enc)
	}
}

func TestFetchStateAddrAndMatches(t *testing.T) {
	addr := HexToAddress("0x01")
	withList := FetchState{AccessList: &AccessTuple{Address: addr}}
	withCode := FetchState{Code: &addr}
	if *withList.Addr() != addr || *withCode.Addr() != addr {
		t.Fatal("Addr must come from either field")
	}
	if !withList.Matches(&withCode) {
		t.Fatal("same account must match")
	}
	other := HexToAddress("0x02")
	if withList.Matches(&FetchState{Code: &other}) {
		t.Fatal("different accounts must not match")
	}
}

func TestFetchStateMergeCode(t *testing.T) {
	addr := HexToAddress("0x01")
	f := FetchState{AccessList: &AccessTuple{Address: addr}}
	f.Merge(FetchState{Code: &addr})
	if f.Code == nil || *f.Code != addr {
		t.Fatal("merge must adopt the code request")
	}
}

func TestFetchStateMergeKeys(t *testing.T) {
	addr := HexToAddress("0x01")
	k1, k2 := HexToHash("0x0a"), HexToHash("0x0b")

	f := FetchState{AccessList: &AccessTuple{Address: addr, StorageKeys: []Hash{k1}}}
	f.Merge(FetchState{AccessList: &AccessTuple{Address: addr, StorageKeys: []Hash{k1, k2}}})

	// Shared keys are duplicated; keys only the other side has are not
	// adopted.
	keys := f.AccessList.StorageKeys
	if len(keys) != 2 || keys[0] != k1 || keys[1] != k1 {
		t.Fatalf("got %v", keys)
	}
}

func TestFetchStateMergeEqualListsNoop(t *testing.T) {
	addr := HexToAddress("0x01")
	k := HexToHash("0x0a")
	f := FetchState{AccessList: &AccessTuple{Address: addr, StorageKeys: []Hash{k}}}
	f.Merge(FetchState{AccessList: &AccessTuple{Address: addr, StorageKeys: []Hash{k}}})
	if len(f.AccessList.StorageKeys) != 1 {
		t.Fatalf("identical lists must not change, got %v", f.AccessList.StorageKeys)
	}
}

func TestFetchStateMergeDifferentAccountsNoop(t *testing.T) {
	a, b := HexToAddress("0x01"), HexToAddress("0x02")
	f := FetchState{AccessList: &AccessTuple{Address: a}}
	f.Merge(FetchState{AccessList: &AccessTuple{Address: b, StorageKeys: []Hash{HexToHash("0x0a")}}})
	if len(f.AccessList.StorageKeys) != 0 {
		t.Fatal("merge across accounts must be a no-op")
	}
}
