package state

import (
	"fmt"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

// Receipt is a sealer's signed statement that a block with the hash exists
// at the index.
type Receipt struct {
	Index     uint64 `json:"index"`
	Hash      string `json:"hash"`
	Sealer    string `json:"sealer"`
	Signature string `json:"signature"`
}

// claim is the part of the receipt that is signed.
type claim struct {
	Index uint64 `json:"index"`
	Hash  string `json:"hash"`
}

// Receipt signs a receipt for the block at the index.
func (s *State) Receipt(index uint64) (Receipt, error) {
	if s.sealerKey == nil {
		return Receipt{}, ErrNoSealer
	}

	block, err := s.chain.Block(index)
	if err != nil {
		return Receipt{}, err
	}

	v, r, sig, err := signature.Sign(claim{Index: block.Index, Hash: block.Hash}, s.sealerKey)
	if err != nil {
		return Receipt{}, fmt.Errorf("sign receipt: %w", err)
	}

	rct := Receipt{
		Index:     block.Index,
		Hash:      block.Hash,
		Sealer:    signature.Address(s.sealerKey),
		Signature: signature.SignatureString(v, r, sig),
	}

	return rct, nil
}

// VerifyReceipt recovers the signer of the receipt and checks it matches the
// sealer named in the receipt. It returns the recovered address.
func VerifyReceipt(rct Receipt) (string, error) {
	v, r, s, err := signature.ToVRSFromHexSignature(rct.Signature)
	if err != nil {
		return "", fmt.Errorf("parse signature: %w", err)
	}

	if err := signature.VerifySignature(v, r, s); err != nil {
		return "", err
	}

	address, err := signature.FromAddress(claim{Index: rct.Index, Hash: rct.Hash}, v, r, s)
	if err != nil {
		return "", fmt.Errorf("recover sealer: %w", err)
	}

	if address != rct.Sealer {
		return address, fmt.Errorf("signed by %s, not %s", address, rct.Sealer)
	}

	return address, nil
}
