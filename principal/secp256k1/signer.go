// Package secp256k1 implements the native ES256K signer.
package secp256k1

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	becdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
	"github.com/nillionnetwork/nuc-go/principal"
)

// Option configures a signer.
type Option func(*Signer)

// WithLegacyDID makes the signer express its identity under the deprecated
// did:nil encoding instead of did:key.
func WithLegacyDID() Option {
	return func(s *Signer) {
		s.legacy = true
	}
}

// Signer signs tokens with a secp256k1 private key: RFC6979 deterministic
// ECDSA over the SHA-256 of the signing input, serialized as 64 bytes of
// r || s.
type Signer struct {
	priv   *btcec.PrivateKey
	legacy bool
}

var _ principal.Signer = (*Signer)(nil)

// Generate creates a signer with a fresh key.
func Generate(options ...Option) (*Signer, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %s", err)
	}
	return FromPrivateKey(priv, options...), nil
}

// FromPrivateKey creates a signer over an existing key.
func FromPrivateKey(priv *btcec.PrivateKey, options ...Option) *Signer {
	s := &Signer{priv: priv}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Signer) DID() did.DID {
	if s.legacy {
		return did.FromLegacyPublicKey(s.priv.PubKey())
	}
	return did.FromPublicKey(s.priv.PubKey())
}

func (s *Signer) Header() nuc.Header {
	return nuc.Header{Alg: nuc.AlgES256K, Typ: nuc.TypNative}
}

func (s *Signer) Sign(input []byte) ([]byte, error) {
	digest := sha256.Sum256(input)
	// SignCompact prefixes a recovery byte; the wire format carries plain
	// r || s.
	sig := becdsa.SignCompact(s.priv, digest[:], true)
	return sig[1:], nil
}
