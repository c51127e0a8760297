package signature

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
)

// Eip712Meta is the typed-data descriptor a token header carries in its
// `meta` field: the domain and struct types that were hashed at signing
// time. Verification reconstructs the exact signed value from these rather
// than trusting anything outside the header.
type Eip712Meta struct {
	Domain      apitypes.TypedDataDomain `json:"domain"`
	Types       apitypes.Types           `json:"types"`
	PrimaryType string                   `json:"primaryType"`
}

// Eip712TokenType is the primary type name the default descriptor uses.
const Eip712TokenType = "NucToken"

// DefaultEip712Meta returns the descriptor this module signs with: a token
// struct over string-serialized payload fields under the given domain.
func DefaultEip712Meta(domain apitypes.TypedDataDomain) Eip712Meta {
	return Eip712Meta{
		Domain:      domain,
		PrimaryType: Eip712TokenType,
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			Eip712TokenType: []apitypes.Type{
				{Name: "iss", Type: "string"},
				{Name: "aud", Type: "string"},
				{Name: "sub", Type: "string"},
				{Name: "cmd", Type: "string"},
				{Name: "pol", Type: "string"},
				{Name: "args", Type: "string"},
				{Name: "nonce", Type: "string"},
				{Name: "nbf", Type: "uint256"},
				{Name: "exp", Type: "uint256"},
				{Name: "prf", Type: "string[]"},
			},
		},
	}
}

// MetaFromHeader decodes the typed-data descriptor out of a header.
func MetaFromHeader(header nuc.Header) (Eip712Meta, error) {
	if header.Meta == nil {
		return Eip712Meta{}, fmt.Errorf("eip712 header is missing 'meta'")
	}
	raw, err := json.Marshal(header.Meta)
	if err != nil {
		return Eip712Meta{}, fmt.Errorf("encoding header meta: %s", err)
	}
	var meta Eip712Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Eip712Meta{}, fmt.Errorf("decoding eip712 meta: %s", err)
	}
	if meta.PrimaryType == "" || meta.Types == nil {
		return Eip712Meta{}, fmt.Errorf("eip712 meta is missing types")
	}
	return meta, nil
}

// HeaderMeta converts the descriptor into the generic map a header carries.
func (m Eip712Meta) HeaderMeta() (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type eip712Scheme struct{}

func (eip712Scheme) Verify(token *nuc.Token) error {
	issuer := token.Payload.Issuer
	if issuer.Method() != did.MethodEthr {
		return NewEip712InvalidIssuerError(issuer)
	}
	// a bad descriptor is a malformed header, not a signature mismatch
	meta, err := MetaFromHeader(token.Header)
	if err != nil {
		return fmt.Errorf("reading typed-data descriptor: %s", err)
	}
	digest, err := typedDataDigest(meta, token.Payload)
	if err != nil {
		return fmt.Errorf("hashing typed data: %s", err)
	}
	sig := token.Signature
	if len(sig) != compactSigSize+1 {
		return NewEip712InvalidSignatureError(issuer)
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return NewEip712InvalidSignatureError(issuer)
	}
	recovered := ethcrypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(recovered.Hex(), issuer.Address()) {
		return NewEip712InvalidSignatureError(issuer)
	}
	return nil
}

// typedDataDigest hashes the canonical typed-data value for a payload under
// the given descriptor.
func typedDataDigest(meta Eip712Meta, payload nuc.Payload) ([]byte, error) {
	message, err := typedDataMessage(payload)
	if err != nil {
		return nil, err
	}
	td := apitypes.TypedData{
		Types:       meta.Types,
		PrimaryType: meta.PrimaryType,
		Domain:      meta.Domain,
		Message:     message,
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, err
	}
	return digest, nil
}

// typedDataMessage maps payload fields to the flat struct that gets hashed:
// DIDs as strings, policy and args JSON-stringified (with "[]"/"{}"
// defaults), timestamps defaulting to zero, proof hashes as hex strings.
func typedDataMessage(payload nuc.Payload) (apitypes.TypedDataMessage, error) {
	pol := "[]"
	args := "{}"
	if body, ok := payload.Delegation(); ok && body.Policy != nil {
		b, err := json.Marshal(body.Policy)
		if err != nil {
			return nil, fmt.Errorf("encoding policy: %s", err)
		}
		pol = string(b)
	}
	if body, ok := payload.Invocation(); ok && body.Args != nil {
		b, err := json.Marshal(body.Args)
		if err != nil {
			return nil, fmt.Errorf("encoding args: %s", err)
		}
		args = string(b)
	}

	var nbf, exp int64
	if payload.NotBefore != nil {
		nbf = payload.NotBefore.Unix()
	}
	if payload.ExpiresAt != nil {
		exp = payload.ExpiresAt.Unix()
	}

	prf := []any{}
	for _, h := range payload.Proofs {
		prf = append(prf, h.String())
	}

	return apitypes.TypedDataMessage{
		"iss":   payload.Issuer.String(),
		"aud":   payload.Audience.String(),
		"sub":   payload.Subject.String(),
		"cmd":   payload.Command.String(),
		"pol":   pol,
		"args":  args,
		"nonce": payload.Nonce,
		"nbf":   math.NewHexOrDecimal256(nbf),
		"exp":   math.NewHexOrDecimal256(exp),
		"prf":   prf,
	}, nil
}
