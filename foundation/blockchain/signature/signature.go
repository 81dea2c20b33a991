// Package signature provides the hashing, canonical JSON and ECDSA signing
// primitives used to seal the ledger and sign receipts.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gowebpki/jcs"
)

// sealerID is added to the recovery id of every signature we produce so a
// ledger signature can't be mistaken for an Ethereum one, which uses 27.
const sealerID = 29

// prefix is hashed in front of every digest we sign.
var prefix = []byte("\x19Ivachain Signed Message:\n32")

// =============================================================================

// Canonical returns the RFC 8785 canonical JSON representation of the value.
// Two values that only differ in key order produce the same bytes.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return CanonicalBytes(data)
}

// CanonicalBytes converts an encoded JSON document into its canonical form.
func CanonicalBytes(data []byte) ([]byte, error) {
	canon, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	return canon, nil
}

// Hash returns the lowercase hex SHA-256 digest of the concatenated parts.
func Hash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================

// Sign signs the canonical form of the value and returns the signature in
// its V, R, S parts with the sealer id applied to V.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	msg, err := digest(value)
	if err != nil {
		return nil, nil, nil, err
	}

	sig, err := crypto.Sign(msg, privateKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sign: %w", err)
	}

	// The signature must recover to the signing key.
	pub, err := crypto.SigToPub(msg, sig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("recover: %w", err)
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(pub), msg, sig[:crypto.RecoveryIDOffset]) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	r, s, v = split(sig)
	v.Add(v, big.NewInt(sealerID))

	return v, r, s, nil
}

// VerifySignature checks that V carries the sealer id and that R and S are
// in range.
func VerifySignature(v, r, s *big.Int) error {
	recID := v.Uint64() - sealerID
	if recID > 1 {
		return errors.New("invalid recovery id")
	}

	if !crypto.ValidateSignatureValues(byte(recID), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress returns the address of the account that signed the value.
// Providing different data than what was signed yields a different address,
// not an error.
func FromAddress(value any, v, r, s *big.Int) (string, error) {
	msg, err := digest(value)
	if err != nil {
		return "", err
	}

	pub, err := crypto.SigToPub(msg, join(v, r, s, sealerID))
	if err != nil {
		return "", fmt.Errorf("recover: %w", err)
	}

	return crypto.PubkeyToAddress(*pub).String(), nil
}

// Address returns the account address for the private key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).String()
}

// SignatureString encodes the signature as 0x prefixed [R|S|V] hex, with the
// sealer id kept in V.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(join(v, r, s, 0))
}

// ToVRSFromHexSignature parses a signature produced by SignatureString.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, nil, nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("invalid signature length %d", len(sig))
	}

	r, s, v = split(sig)

	return v, r, s, nil
}

// =============================================================================

// digest hashes the canonical form of the value and then the prefix with
// that hash, giving the 32 bytes that get signed.
func digest(value any) ([]byte, error) {
	data, err := Canonical(value)
	if err != nil {
		return nil, err
	}

	return crypto.Keccak256(prefix, crypto.Keccak256(data)), nil
}

// split breaks a 65 byte [R|S|V] signature into its parts.
func split(sig []byte) (r, s, v *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes(sig[64:])

	return r, s, v
}

// join builds the 65 byte [R|S|V] form, subtracting offset from V.
func join(v, r, s *big.Int, offset uint64) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v.Uint64() - offset)

	return sig
}
