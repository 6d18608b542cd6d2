package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethcanon/ethcanon/crypto"
)

var (
	// ErrChainIDMismatch is returned when a typed transaction declares
	// a chain id different from the signer's.
	ErrChainIDMismatch = errors.New("types: transaction chain id does not match signer")

	// errInvalidRecoveryID is returned when the v value of a protected
	// legacy transaction does not reduce to a valid recovery id under
	// the signer's chain id.
	errInvalidRecoveryID = errors.New("types: invalid recovery id for chain")
)

// Signer derives senders and produces signatures for one chain. All
// methods are safe for concurrent use.
type Signer struct {
	chainID *big.Int
}

// NewSigner returns a signer bound to the given chain id.
func NewSigner(chainID *big.Int) *Signer {
	return &Signer{chainID: new(big.Int).Set(chainID)}
}

// ChainID returns the signer's chain id.
func (s *Signer) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// Sender recovers the address that signed the transaction. The result
// is cached on the transaction, keyed by the signer's chain id.
func (s *Signer) Sender(tx *Transaction) (Address, error) {
	if cached := tx.from.Load(); cached != nil && cached.chainID.Cmp(s.chainID) == 0 {
		return cached.from, nil
	}
	addr, err := s.recoverSender(tx)
	if err != nil {
		return Address{}, err
	}
	tx.from.Store(&senderCache{chainID: new(big.Int).Set(s.chainID), from: addr})
	return addr, nil
}

func (s *Signer) recoverSender(tx *Transaction) (Address, error) {
	if tx.Type() != LegacyTxType {
		if tx.ChainID().Cmp(s.chainID) != 0 {
			return Address{}, fmt.Errorf("%w: expect %v, got %v",
				ErrChainIDMismatch, s.chainID, tx.ChainID())
		}
	}
	recID, err := s.recoveryID(tx)
	if err != nil {
		return Address{}, err
	}
	_, r, sv := tx.inner.rawSignatureValues()
	r, sv = bigOrZero(r), bigOrZero(sv)
	msg, err := tx.SigningMessage(s.chainID)
	if err != nil {
		return Address{}, err
	}
	return recoverPlain(keccak(msg), r, sv, recID)
}

// recoveryID reduces the stored v value to a raw recovery id. Legacy
// transactions use the homestead values directly, subtract 27 from
// 27/28, and unwind the EIP-155 offset otherwise. Typed transactions
// store the raw id.
func (s *Signer) recoveryID(tx *Transaction) (byte, error) {
	v, _, _ := tx.inner.rawSignatureValues()
	v = bigOrZero(v)
	if tx.Type() != LegacyTxType {
		if !v.IsUint64() || v.Uint64() > 1 {
			return 0, ErrInvalidSig
		}
		return byte(v.Uint64()), nil
	}
	if v.IsUint64() {
		switch vu := v.Uint64(); vu {
		case 0, 1:
			return byte(vu), nil
		case 27, 28:
			return byte(vu - 27), nil
		}
	}
	// v = recID + 2*chainID + 35, unwound in big.Int so chain ids
	// above 64 bits do not wrap.
	rec := new(big.Int).Sub(v, new(big.Int).Lsh(s.chainID, 1))
	rec.Sub(rec, big.NewInt(35))
	if rec.Sign() < 0 || rec.Cmp(big.NewInt(1)) > 0 {
		return 0, errInvalidRecoveryID
	}
	return byte(rec.Uint64()), nil
}

// recoverPlain recovers the address from a digest and signature
// components. r and s must be strictly inside (0, N).
func recoverPlain(digest []byte, r, s *big.Int, recID byte) (Address, error) {
	if !crypto.ValidateSignatureValues(recID, r, s) {
		return Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = recID

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return Address{}, err
	}
	return Address(crypto.PubkeyToAddressBytes(pub)), nil
}

// SignTx signs the transaction with the given key and returns a signed
// copy. Fresh legacy signatures are always replay protected: the
// message carries the signer's chain id and the stored v gets the
// EIP-155 encoding. Typed transactions store the raw recovery id and
// the signer's chain id.
func (s *Signer) SignTx(tx *Transaction, key *ecdsa.PrivateKey) (*Transaction, error) {
	var msg []byte
	var err error
	if inner, ok := tx.inner.(*LegacyTx); ok {
		// The stored-v protection heuristic only applies when
		// recovering foreign transactions. Going through it here
		// would sign the homestead message for chain ids that
		// collide with homestead v values, chain id 1 included.
		msg, err = legacyProtectedMessage(inner, s.chainID)
	} else {
		unsigned := tx.inner.copy()
		unsigned.setSignatureValues(new(big.Int).Set(s.chainID), new(big.Int), new(big.Int), new(big.Int))
		msg, err = (&Transaction{inner: unsigned}).SigningMessage(s.chainID)
	}
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(keccak(msg), key)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	sv := new(big.Int).SetBytes(sig[32:64])
	v := new(big.Int).SetUint64(uint64(sig[64]))
	if tx.Type() == LegacyTxType {
		// v = recID + 2*chainID + 35
		v.Add(v, new(big.Int).Lsh(s.chainID, 1))
		v.Add(v, big.NewInt(35))
	}
	return tx.WithSignature(s.ChainID(), v, r, sv), nil
}
