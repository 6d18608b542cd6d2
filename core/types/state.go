package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethcanon/ethcanon/rlp"
)

// StateAccount is the consensus form of an account in the state trie.
// The zero value of the struct does not mean "not existing"; use
// NewStateAccount for a canonical empty account.
type StateAccount struct {
	Nonce    uint64
	Balance  *big.Int
	Root     Hash
	CodeHash Hash
}

// NewStateAccount returns the canonical non-existing account: zero
// nonce and balance, empty storage root and empty code hash.
func NewStateAccount() *StateAccount {
	return &StateAccount{
		Balance:  new(big.Int),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash,
	}
}

// Exists reports whether the account differs from the canonical empty
// account.
func (a *StateAccount) Exists() bool {
	return a.Nonce != 0 ||
		(a.Balance != nil && a.Balance.Sign() != 0) ||
		a.Root != EmptyRootHash ||
		a.CodeHash != EmptyCodeHash
}

type stateAccountRLP struct {
	Nonce    uint64
	Balance  *big.Int
	Root     Hash
	CodeHash Hash
}

// Bytes returns the trie encoding of the account. A non-existing
// account encodes as the empty byte string.
func (a *StateAccount) Bytes() ([]byte, error) {
	if !a.Exists() {
		return nil, nil
	}
	return rlp.EncodeToBytes(stateAccountRLP{
		Nonce:    a.Nonce,
		Balance:  bigOrZero(a.Balance),
		Root:     a.Root,
		CodeHash: a.CodeHash,
	})
}

// StateAccountFromBytes decodes a trie account encoding. Empty input
// yields the canonical empty account.
func StateAccountFromBytes(b []byte) (*StateAccount, error) {
	if len(b) == 0 {
		return NewStateAccount(), nil
	}
	var enc stateAccountRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	return &StateAccount{
		Nonce:    enc.Nonce,
		Balance:  enc.Balance,
		Root:     enc.Root,
		CodeHash: enc.CodeHash,
	}, nil
}

// AccountResult is the eth_getProof account record.
type AccountResult struct {
	Address      Address         `json:"address"`
	AccountProof []HexBytes      `json:"accountProof"`
	Balance      *HexBig         `json:"balance"`
	CodeHash     Hash            `json:"codeHash"`
	Nonce        HexUint64       `json:"nonce"`
	StorageHash  Hash            `json:"storageHash"`
	StorageProof []StorageResult `json:"storageProof"`
}

// StorageResult is one storage slot of an eth_getProof response.
type StorageResult struct {
	Key   HexBytes   `json:"key"`
	Value *HexBig    `json:"value"`
	Proof []HexBytes `json:"proof"`
}

// AccessListResult is the eth_createAccessList response.
type AccessListResult struct {
	AccessList AccessList `json:"accessList"`
	Error      *string    `json:"error,omitempty"`
	GasUsed    HexUint64  `json:"gasUsed"`
}

// Ensure guarantees the caller and recipient appear in the list.
func (r *AccessListResult) Ensure(caller Address, to *Address) {
	r.GetOrInsert(caller)
	if to != nil {
		r.GetOrInsert(*to)
	}
}

// GetOrInsert returns the tuple for addr, appending an empty one when
// absent.
func (r *AccessListResult) GetOrInsert(addr Address) *AccessTuple {
	for i := range r.AccessList {
		if r.AccessList[i].Address == addr {
			return &r.AccessList[i]
		}
	}
	r.AccessList = append(r.AccessList, AccessTuple{Address: addr, StorageKeys: []Hash{}})
	return &r.AccessList[len(r.AccessList)-1]
}

// MarshalJSON normalizes a nil access list to an empty one.
func (r AccessListResult) MarshalJSON() ([]byte, error) {
	type alias AccessListResult
	if r.AccessList == nil {
		r.AccessList = AccessList{}
	}
	return json.Marshal(alias(r))
}

// FetchStateResult pairs the proof record with the contract code of
// one prefetched account.
type FetchStateResult struct {
	Account *AccountResult
	Code    []byte
}

// FetchState describes one account's worth of state to prefetch: the
// storage keys to warm and, optionally, the contract code.
type FetchState struct {
	AccessList *AccessTuple
	Code       *Address
}

// Addr returns the account the fetch targets, nil when the fetch is
// empty.
func (f *FetchState) Addr() *Address {
	if f.AccessList != nil {
		return &f.AccessList.Address
	}
	return f.Code
}

// Matches reports whether both fetches target the same account.
func (f *FetchState) Matches(other *FetchState) bool {
	a, b := f.Addr(), other.Addr()
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Merge folds other into f when both target the same account. When both
// carry access lists, a key from other is appended only if f already
// contains it, duplicating the shared keys. Callers that need a plain
// union must dedupe afterwards.
func (f *FetchState) Merge(other FetchState) {
	if !f.Matches(&other) {
		return
	}
	if f.Code == nil && other.Code != nil {
		f.Code = other.Code
	}
	switch {
	case f.AccessList == nil && other.AccessList != nil:
		f.AccessList = other.AccessList
	case f.AccessList == nil || other.AccessList == nil:
	default:
		if accessTupleEqual(f.AccessList, other.AccessList) {
			return
		}
		for _, key := range other.AccessList.StorageKeys {
			if containsHash(f.AccessList.StorageKeys, key) {
				f.AccessList.StorageKeys = append(f.AccessList.StorageKeys, key)
			}
		}
	}
}

func accessTupleEqual(a, b *AccessTuple) bool {
	if a.Address != b.Address || len(a.StorageKeys) != len(b.StorageKeys) {
		return false
	}
	for i := range a.StorageKeys {
		if a.StorageKeys[i] != b.StorageKeys[i] {
			return false
		}
	}
	return true
}

func containsHash(haystack []Hash, needle Hash) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
