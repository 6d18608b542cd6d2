package types

import (
	"encoding/json"
	"fmt"
)

// TrieHasher computes the root of an ordered list trie, where item i is
// keyed by rlp(i). The trie package provides the canonical
// implementation.
type TrieHasher interface {
	OrderedRoot(items [][]byte) Hash
}

// Block is the RPC shape of a sealed block: the header plus the
// projected transaction records and withdrawals.
type Block struct {
	Header       *Header
	Transactions []*RPCTransaction
	Withdrawals  []*Withdrawal
}

// NewBlock assembles a block from its parts and seals the header
// commitments:
//
//   - transactions and receipts roots are the ordered trie roots of
//     the canonical encodings, or EmptyRootHash when empty
//   - the log bloom is rebuilt from the receipts when any are present
//   - the uncle hash is pinned to the empty-list commitment
//   - the withdrawals root is set when a withdrawal list is given,
//     with the empty list committing to EmptyRootHash
//
// txs and receipts must pair up one to one; a length mismatch is a
// programming error and panics.
func NewBlock(header *Header, txs []*Transaction, receipts []*Receipt, withdrawals []*Withdrawal, hasher TrieHasher) (*Block, error) {
	if len(txs) != len(receipts) {
		panic(fmt.Sprintf("types: %d transactions with %d receipts", len(txs), len(receipts)))
	}
	h := CopyHeader(header)

	if len(txs) == 0 {
		h.TxHash = EmptyRootHash
	} else {
		items := make([][]byte, len(txs))
		for i, tx := range txs {
			enc, err := tx.EncodeRLP()
			if err != nil {
				return nil, err
			}
			items[i] = enc
		}
		h.TxHash = hasher.OrderedRoot(items)
	}

	if len(receipts) == 0 {
		h.ReceiptHash = EmptyRootHash
	} else {
		h.Bloom = CreateBloom(receipts)
		items := make([][]byte, len(receipts))
		for i, r := range receipts {
			enc, err := r.EncodeRLP()
			if err != nil {
				return nil, err
			}
			items[i] = enc
		}
		h.ReceiptHash = hasher.OrderedRoot(items)
	}

	h.UncleHash = EmptyUncleHash

	if withdrawals != nil {
		root := withdrawalsRoot(withdrawals, hasher)
		h.WithdrawalsHash = &root
	}

	transactions := make([]*RPCTransaction, len(txs))
	for i, tx := range txs {
		transactions[i] = tx.ToRPCTransaction(h)
	}
	return &Block{Header: h, Transactions: transactions, Withdrawals: withdrawals}, nil
}

func withdrawalsRoot(withdrawals []*Withdrawal, hasher TrieHasher) Hash {
	if len(withdrawals) == 0 {
		return EmptyRootHash
	}
	items := make([][]byte, len(withdrawals))
	for i, w := range withdrawals {
		enc, _ := w.EncodeRLP()
		items[i] = enc
	}
	return hasher.OrderedRoot(items)
}

// Hash returns the sealed header hash.
func (b *Block) Hash() Hash { return b.Header.Hash() }

// Compare collects a description of every place the two blocks differ:
// header fields, transaction hashes and withdrawals. An empty result
// means they match.
func (b *Block) Compare(other *Block) []string {
	var diffs []string
	diff := func(field string, x, y interface{}) {
		diffs = append(diffs, fmt.Sprintf("%s: %v != %v", field, x, y))
	}

	h, o := b.Header, other.Header
	if h.ParentHash != o.ParentHash {
		diff("parentHash", h.ParentHash, o.ParentHash)
	}
	if h.UncleHash != o.UncleHash {
		diff("sha3Uncles", h.UncleHash, o.UncleHash)
	}
	if h.Coinbase != o.Coinbase {
		diff("miner", h.Coinbase, o.Coinbase)
	}
	if h.Root != o.Root {
		diff("stateRoot", h.Root, o.Root)
	}
	if h.TxHash != o.TxHash {
		diff("transactionsRoot", h.TxHash, o.TxHash)
	}
	if h.ReceiptHash != o.ReceiptHash {
		diff("receiptsRoot", h.ReceiptHash, o.ReceiptHash)
	}
	if h.Bloom != o.Bloom {
		diff("logsBloom", h.Bloom[:8], o.Bloom[:8])
	}
	if bigCmpNil(h.Difficulty, o.Difficulty) != 0 {
		diff("difficulty", h.Difficulty, o.Difficulty)
	}
	if bigCmpNil(h.Number, o.Number) != 0 {
		diff("number", h.Number, o.Number)
	}
	if h.GasLimit != o.GasLimit {
		diff("gasLimit", h.GasLimit, o.GasLimit)
	}
	if h.GasUsed != o.GasUsed {
		diff("gasUsed", h.GasUsed, o.GasUsed)
	}
	if h.Time != o.Time {
		diff("timestamp", h.Time, o.Time)
	}
	if string(h.Extra) != string(o.Extra) {
		diff("extraData", HexBytes(h.Extra), HexBytes(o.Extra))
	}
	if h.MixDigest != o.MixDigest {
		diff("mixHash", h.MixDigest, o.MixDigest)
	}
	if h.Nonce != o.Nonce {
		diff("nonce", h.Nonce.Uint64(), o.Nonce.Uint64())
	}
	if bigCmpNil(h.BaseFee, o.BaseFee) != 0 {
		diff("baseFeePerGas", h.BaseFee, o.BaseFee)
	}
	if !hashPtrEqual(h.WithdrawalsHash, o.WithdrawalsHash) {
		diff("withdrawalsRoot", h.WithdrawalsHash, o.WithdrawalsHash)
	}

	if len(b.Transactions) != len(other.Transactions) {
		diff("transactions length", len(b.Transactions), len(other.Transactions))
	} else {
		for i := range b.Transactions {
			if b.Transactions[i].Hash != other.Transactions[i].Hash {
				diff(fmt.Sprintf("transactions[%d]", i),
					b.Transactions[i].Hash, other.Transactions[i].Hash)
			}
		}
	}

	if len(b.Withdrawals) != len(other.Withdrawals) {
		diff("withdrawals length", len(b.Withdrawals), len(other.Withdrawals))
	} else {
		for i := range b.Withdrawals {
			if *b.Withdrawals[i] != *other.Withdrawals[i] {
				diff(fmt.Sprintf("withdrawals[%d]", i), b.Withdrawals[i], other.Withdrawals[i])
			}
		}
	}
	return diffs
}

func hashPtrEqual(a, b *Hash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MarshalJSON flattens the header fields into the block record.
func (b *Block) MarshalJSON() ([]byte, error) {
	hdr, err := json.Marshal(b.Header)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(hdr, &fields); err != nil {
		return nil, err
	}
	txs := b.Transactions
	if txs == nil {
		txs = []*RPCTransaction{}
	}
	enc, err := json.Marshal(txs)
	if err != nil {
		return nil, err
	}
	fields["transactions"] = enc
	if b.Withdrawals != nil {
		enc, err := json.Marshal(b.Withdrawals)
		if err != nil {
			return nil, err
		}
		fields["withdrawals"] = enc
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the RPC shape of the block.
func (b *Block) UnmarshalJSON(input []byte) error {
	b.Header = new(Header)
	if err := b.Header.UnmarshalJSON(input); err != nil {
		return err
	}
	var body struct {
		Transactions []*RPCTransaction `json:"transactions"`
		Withdrawals  []*Withdrawal     `json:"withdrawals"`
	}
	if err := json.Unmarshal(input, &body); err != nil {
		return err
	}
	b.Transactions = body.Transactions
	b.Withdrawals = body.Withdrawals
	return nil
}
