package signature

import (
	"fmt"

	"github.com/nillionnetwork/nuc-go/core/failure"
	"github.com/nillionnetwork/nuc-go/did"
)

// InvalidSignaturesError is the envelope-level verification failure. It
// wraps the first per-token failure encountered.
type InvalidSignaturesError struct {
	failure.NamedWithStackTrace
	cause error
}

func NewInvalidSignaturesError(cause error) error {
	return InvalidSignaturesError{failure.NamedWithCurrentStackTrace("InvalidSignatures"), cause}
}

func (e InvalidSignaturesError) Error() string {
	return fmt.Sprintf("invalid signatures: %s", e.cause)
}

func (e InvalidSignaturesError) Unwrap() error {
	return e.cause
}

// NativeSignatureError reports that a native ES256K signature did not verify
// against the token issuer.
type NativeSignatureError struct {
	failure.NamedWithStackTrace
	issuer did.DID
}

func NewNativeSignatureError(issuer did.DID) error {
	return NativeSignatureError{failure.NamedWithCurrentStackTrace("NativeSignatureVerificationFailed"), issuer}
}

func (e NativeSignatureError) Error() string {
	return fmt.Sprintf("native signature verification failed for issuer %s", e.issuer)
}

// Eip712InvalidIssuerError reports that a typed-data signed token was issued
// by an identity that is not address-backed.
type Eip712InvalidIssuerError struct {
	failure.NamedWithStackTrace
	issuer did.DID
}

func NewEip712InvalidIssuerError(issuer did.DID) error {
	return Eip712InvalidIssuerError{failure.NamedWithCurrentStackTrace("Eip712InvalidIssuer"), issuer}
}

func (e Eip712InvalidIssuerError) Error() string {
	return fmt.Sprintf("eip712 tokens require a did:ethr issuer, got %s", e.issuer)
}

// Eip712InvalidSignatureError reports that the recovered typed-data signer
// does not match the token issuer.
type Eip712InvalidSignatureError struct {
	failure.NamedWithStackTrace
	issuer did.DID
}

func NewEip712InvalidSignatureError(issuer did.DID) error {
	return Eip712InvalidSignatureError{failure.NamedWithCurrentStackTrace("Eip712InvalidSignature"), issuer}
}

func (e Eip712InvalidSignatureError) Error() string {
	return fmt.Sprintf("eip712 signature does not recover to issuer %s", e.issuer)
}
