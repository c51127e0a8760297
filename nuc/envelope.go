package nuc

import (
	"fmt"
	"strings"
)

// Envelope is a leaf token together with the unordered bag of ancestor
// tokens backing it. Whether the bag actually forms the chain implied by the
// proof hashes is established at validation time, not here.
type Envelope struct {
	Token  Token
	Proofs []Token
}

// ParseEnvelope decodes a serialized chain: token strings joined by '/',
// leaf first.
func ParseEnvelope(str string) (*Envelope, error) {
	parts := strings.Split(str, "/")
	token, err := ParseToken(parts[0])
	if err != nil {
		return nil, fmt.Errorf("parsing token: %s", err)
	}
	proofs := make([]Token, 0, len(parts)-1)
	for i, part := range parts[1:] {
		proof, err := ParseToken(part)
		if err != nil {
			return nil, fmt.Errorf("parsing proof %d: %s", i, err)
		}
		proofs = append(proofs, proof)
	}
	return &Envelope{Token: token, Proofs: proofs}, nil
}

// String serializes the envelope leaf-first.
func (e *Envelope) String() string {
	parts := make([]string, 0, len(e.Proofs)+1)
	parts = append(parts, e.Token.String())
	for _, proof := range e.Proofs {
		parts = append(parts, proof.String())
	}
	return strings.Join(parts, "/")
}
