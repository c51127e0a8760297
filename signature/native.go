package signature

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	becdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
)

const compactSigSize = 64

type nativeScheme struct{}

func (nativeScheme) Verify(token *nuc.Token) error {
	return verifyNative(token.Payload.Issuer, token.SignedMessage(), token.Signature)
}

// verifyNative checks a signature over msg against the issuer identity. Key
// backed issuers verify directly against the embedded public key; address
// backed issuers recover the signer address and compare.
func verifyNative(issuer did.DID, msg, sig []byte) error {
	if issuer.Method() == did.MethodEthr {
		if !recoversToAddress(msg, sig, issuer.Address()) {
			return NewNativeSignatureError(issuer)
		}
		return nil
	}

	key, err := issuer.PublicKey()
	if err != nil {
		return NewNativeSignatureError(issuer)
	}
	if len(sig) != compactSigSize {
		return NewNativeSignatureError(issuer)
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return NewNativeSignatureError(issuer)
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return NewNativeSignatureError(issuer)
	}
	digest := sha256.Sum256(msg)
	if !becdsa.NewSignature(&r, &s).Verify(digest[:], key) {
		return NewNativeSignatureError(issuer)
	}
	return nil
}

// recoversToAddress recovers the signer of a 65-byte [r || s || v] signature
// over keccak256(msg) and compares it case-insensitively to address.
func recoversToAddress(msg, sig []byte, address string) bool {
	if len(sig) != compactSigSize+1 {
		return false
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	digest := ethcrypto.Keccak256(msg)
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return false
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	return strings.EqualFold(recovered.Hex(), address)
}
