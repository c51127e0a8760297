// Package eip712 implements a wallet-style signer producing EIP-712 typed
// data signatures over an EVM key.
package eip712

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
	"github.com/nillionnetwork/nuc-go/principal"
	"github.com/nillionnetwork/nuc-go/signature"
)

// Signer signs the 32-byte typed-data digest with an EVM private key,
// producing the 65-byte [r || s || v] signature EIP-712 verifiers expect.
type Signer struct {
	key  *ecdsa.PrivateKey
	meta signature.Eip712Meta
}

var _ principal.Signer = (*Signer)(nil)

// Generate creates a signer with a fresh key under the given typed-data
// domain.
func Generate(domain apitypes.TypedDataDomain) (*Signer, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %s", err)
	}
	return FromPrivateKey(key, domain), nil
}

// FromPrivateKey creates a signer over an existing key.
func FromPrivateKey(key *ecdsa.PrivateKey, domain apitypes.TypedDataDomain) *Signer {
	return &Signer{key: key, meta: signature.DefaultEip712Meta(domain)}
}

func (s *Signer) DID() did.DID {
	address := ethcrypto.PubkeyToAddress(s.key.PublicKey).Hex()
	d, err := did.FromAddress(address)
	if err != nil {
		return did.Undef
	}
	return d
}

func (s *Signer) Header() nuc.Header {
	meta, err := s.meta.HeaderMeta()
	if err != nil {
		meta = nil
	}
	return nuc.Header{Alg: nuc.AlgES256K, Typ: nuc.TypEip712, Meta: meta}
}

// Sign signs a typed-data digest as produced by signature.SigningInput.
func (s *Signer) Sign(digest []byte) ([]byte, error) {
	sig, err := ethcrypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("signing typed data: %s", err)
	}
	return sig, nil
}
