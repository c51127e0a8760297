package validator

import (
	"github.com/nillionnetwork/nuc-go/nuc"
)

// SortProofs materializes the ordered ancestor chain out of the unordered
// proof bag: starting from the leaf's proof hash, it repeatedly consumes the
// token matching the current hash and follows that token's own proof
// reference. The result is ordered nearest-ancestor first; callers reverse
// it for root-first work.
//
// The bag must be exactly the referenced chain: a dangling reference is
// MissingProof, a token with two or more references is TooManyProofs, and
// tokens left unconsumed are UnchainedProofs.
func SortProofs(start nuc.Hash, proofs []nuc.Token) ([]nuc.Token, error) {
	index := make(map[nuc.Hash]nuc.Token, len(proofs))
	for _, proof := range proofs {
		index[proof.ComputeHash()] = proof
	}

	chain := make([]nuc.Token, 0, len(proofs))
	next := &start
	for next != nil {
		token, ok := index[*next]
		if !ok {
			return nil, NewMissingProofError(*next)
		}
		delete(index, *next)
		chain = append(chain, token)

		refs := token.Payload.Proofs
		switch len(refs) {
		case 0:
			next = nil
		case 1:
			next = &refs[0]
		default:
			return nil, NewTooManyProofsError(len(refs))
		}
	}

	// a duplicated token collapses in the index, so compare against the bag
	// size rather than just checking for leftovers
	if unconsumed := len(proofs) - len(chain); unconsumed > 0 {
		return nil, NewUnchainedProofsError(unconsumed)
	}
	return chain, nil
}
