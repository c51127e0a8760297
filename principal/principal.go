// Package principal defines the signing capability the token builder
// depends on. Concrete backends live in subpackages; anything that can
// produce a DID, a header and a signature can mint tokens, including
// wallet-style signers that never expose key material.
package principal

import (
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
)

// Signer mints token signatures under one signing scheme.
type Signer interface {
	// DID is the issuer identity signed tokens carry.
	DID() did.DID
	// Header is the token header this signer's signatures verify under,
	// including any scheme parameters in meta.
	Header() nuc.Header
	// Sign signs the scheme-specific signing input.
	Sign(input []byte) ([]byte, error)
}
