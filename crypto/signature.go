// ECDSA signing and public key recovery over secp256k1.
//
// Signatures use the 65-byte compact form R (32) || S (32) || V (1),
// where V is the raw recovery id (0 or 1). S is always normalized to
// the lower half of the curve order per EIP-2, preventing signature
// malleability.
package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"math/big"
)

// SignatureLength is the byte length of a compact signature: R || S || V.
const SignatureLength = 65

var (
	secp256k1N     = S256().Params().N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)
)

var (
	ErrInvalidSignature  = errors.New("crypto: invalid signature")
	ErrInvalidRecoveryID = errors.New("crypto: invalid recovery id")
	ErrInvalidHashLen    = errors.New("crypto: message hash must be 32 bytes")
	ErrRecoveryFailed    = errors.New("crypto: public key recovery failed")
)

// ValidateSignatureValues reports whether r and s are valid scalars,
// strictly inside (0, N), and v is a raw recovery id.
func ValidateSignatureValues(v byte, r, s *big.Int) bool {
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || r.Cmp(secp256k1N) >= 0 {
		return false
	}
	if s.Sign() <= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	return true
}

// Sign produces a 65-byte compact signature of a 32-byte digest. The
// returned S component is in the lower half of the curve order, and V
// is the recovery id matching the signing key.
func Sign(digest []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidHashLen
	}
	r, s, err := ecdsa.Sign(rand.Reader, prv, digest)
	if err != nil {
		return nil, err
	}
	if s.Cmp(secp256k1halfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	sig := make([]byte, SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])

	// Find the recovery id by trial recovery against the known key.
	want := FromECDSAPub(&prv.PublicKey)
	for v := byte(0); v < 2; v++ {
		sig[64] = v
		pub, err := Ecrecover(digest, sig)
		if err == nil && bytesEqual(pub, want) {
			return sig, nil
		}
	}
	return nil, ErrRecoveryFailed
}

// Ecrecover returns the uncompressed public key (0x04 || X || Y) that
// produced the given signature over the digest.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}
	return FromECDSAPub(pub), nil
}

// SigToPub recovers the signing public key from a 32-byte digest and a
// 65-byte compact signature.
func SigToPub(digest, sig []byte) (*ecdsa.PublicKey, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidHashLen
	}
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := sig[64]
	if !ValidateSignatureValues(v, r, s) {
		return nil, ErrInvalidSignature
	}
	x, y, err := recoverPublicKey(digest, r, s, v)
	if err != nil {
		return nil, err
	}
	pub := &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}

	// Reject signatures that do not verify against the recovered key;
	// recovery can yield a spurious point for a corrupted signature.
	if !verifyRS(pub, digest, r, s) {
		return nil, ErrRecoveryFailed
	}
	return pub, nil
}

// FromECDSAPub serializes a public key into the 65-byte uncompressed
// form 0x04 || X || Y.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	out := make([]byte, 65)
	out[0] = 0x04
	pub.X.FillBytes(out[1:33])
	pub.Y.FillBytes(out[33:65])
	return out
}

// PubkeyToAddressBytes derives the 20-byte account address from a
// public key: the last 20 bytes of Keccak256(X || Y).
func PubkeyToAddressBytes(pub *ecdsa.PublicKey) [20]byte {
	var addr [20]byte
	enc := FromECDSAPub(pub)
	copy(addr[:], Keccak256(enc[1:])[12:])
	return addr
}

// verifyRS checks r, s against the digest using plain ECDSA math. The
// stdlib verifier is not used because it rejects custom curve points
// built outside its key parsing path on some configurations.
func verifyRS(pub *ecdsa.PublicKey, digest []byte, r, s *big.Int) bool {
	c := S256().(*secp256k1Curve)
	e := new(big.Int).SetBytes(digest)
	w := new(big.Int).ModInverse(s, c.n)
	if w == nil {
		return false
	}
	u1 := new(big.Int).Mul(e, w)
	u1.Mod(u1, c.n)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, c.n)
	x1, y1 := c.ScalarBaseMult(u1.Bytes())
	x2, y2 := c.ScalarMult(pub.X, pub.Y, u2.Bytes())
	x, y := c.Add(x1, y1, x2, y2)
	if x.Sign() == 0 && y.Sign() == 0 {
		return false
	}
	x.Mod(x, c.n)
	return x.Cmp(r) == 0
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
