// Package signature verifies token signatures. Tokens declare their signing
// scheme in the header: native ES256K over the raw header and payload bytes,
// or EIP-712 typed data reconstructed from the payload. The scheme is picked
// once at the dispatch boundary rather than scattering header checks through
// the validator.
package signature

import (
	"fmt"

	"github.com/nillionnetwork/nuc-go/nuc"
)

// Scheme verifies a single token's signature.
type Scheme interface {
	Verify(token *nuc.Token) error
}

// SchemeFor selects the verification scheme a header declares.
func SchemeFor(header nuc.Header) Scheme {
	if header.Eip712() {
		return eip712Scheme{}
	}
	return nativeScheme{}
}

// VerifyToken verifies one token under its declared scheme.
func VerifyToken(token *nuc.Token) error {
	return SchemeFor(token.Header).Verify(token)
}

// VerifyEnvelope verifies every token in the envelope, leaf first then
// proofs in order, stopping at the first failure.
func VerifyEnvelope(env *nuc.Envelope) error {
	if err := VerifyToken(&env.Token); err != nil {
		return NewInvalidSignaturesError(err)
	}
	for i := range env.Proofs {
		if err := VerifyToken(&env.Proofs[i]); err != nil {
			return NewInvalidSignaturesError(err)
		}
	}
	return nil
}

// SigningInput derives the bytes a signer must sign for a token with the
// given header: for native tokens the raw header and payload joined by a
// dot, for EIP-712 tokens the 32-byte typed-data digest. Verification
// derives the same bytes, so the two sides cannot drift apart.
func SigningInput(header nuc.Header, payload nuc.Payload, rawHeader, rawPayload []byte) ([]byte, error) {
	if header.Eip712() {
		meta, err := MetaFromHeader(header)
		if err != nil {
			return nil, err
		}
		digest, err := typedDataDigest(meta, payload)
		if err != nil {
			return nil, fmt.Errorf("hashing typed data: %s", err)
		}
		return digest, nil
	}
	msg := make([]byte, 0, len(rawHeader)+1+len(rawPayload))
	msg = append(msg, rawHeader...)
	msg = append(msg, '.')
	msg = append(msg, rawPayload...)
	return msg, nil
}
