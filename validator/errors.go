package validator

import (
	"fmt"
	"time"

	"github.com/nillionnetwork/nuc-go/core/failure"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
)

// Every validation failure is a distinct named type so callers can branch on
// cause. The orchestrator surfaces exactly one of these per call.

// ChainTooLongError reports a chain above the configured length limit.
type ChainTooLongError struct {
	failure.NamedWithStackTrace
	length int
	limit  int
}

func NewChainTooLongError(length, limit int) error {
	return ChainTooLongError{failure.NamedWithCurrentStackTrace("ChainTooLong"), length, limit}
}

func (e ChainTooLongError) Error() string {
	return fmt.Sprintf("chain of %d tokens exceeds the limit of %d", e.length, e.limit)
}

// TooManyProofsError reports a payload declaring more than one proof hash.
// The protocol is a linear chain, not a DAG, so extra references are a
// structural violation rather than something to silently truncate.
type TooManyProofsError struct {
	failure.NamedWithStackTrace
	count int
}

func NewTooManyProofsError(count int) error {
	return TooManyProofsError{failure.NamedWithCurrentStackTrace("TooManyProofs"), count}
}

func (e TooManyProofsError) Error() string {
	return fmt.Sprintf("payload declares %d proof hashes, at most 1 allowed", e.count)
}

// MissingProofError reports a proof hash with no matching token in the bag.
type MissingProofError struct {
	failure.NamedWithStackTrace
	hash nuc.Hash
}

func NewMissingProofError(hash nuc.Hash) error {
	return MissingProofError{failure.NamedWithCurrentStackTrace("MissingProof"), hash}
}

func (e MissingProofError) Error() string {
	return fmt.Sprintf("no proof with hash %s in the envelope", e.hash)
}

// UnchainedProofsError reports proofs left over after the chain walk; extra
// unreferenced tokens are not ignored.
type UnchainedProofsError struct {
	failure.NamedWithStackTrace
	count int
}

func NewUnchainedProofsError(count int) error {
	return UnchainedProofsError{failure.NamedWithCurrentStackTrace("UnchainedProofs"), count}
}

func (e UnchainedProofsError) Error() string {
	return fmt.Sprintf("%d proofs are not referenced by the chain", e.count)
}

// ProofsMustBeDelegationsError reports an invocation in ancestor position.
type ProofsMustBeDelegationsError struct {
	failure.NamedWithStackTrace
}

func NewProofsMustBeDelegationsError() error {
	return ProofsMustBeDelegationsError{failure.NamedWithCurrentStackTrace("ProofsMustBeDelegations")}
}

func (e ProofsMustBeDelegationsError) Error() string {
	return "every proof in a chain must be a delegation"
}

// IssuerAudienceMismatchError reports a link whose issuer is not the
// previous token's audience.
type IssuerAudienceMismatchError struct {
	failure.NamedWithStackTrace
	audience did.DID
	issuer   did.DID
}

func NewIssuerAudienceMismatchError(audience, issuer did.DID) error {
	return IssuerAudienceMismatchError{failure.NamedWithCurrentStackTrace("IssuerAudienceMismatch"), audience, issuer}
}

func (e IssuerAudienceMismatchError) Error() string {
	return fmt.Sprintf("token issued by %s but the previous token is addressed to %s", e.issuer, e.audience)
}

// DifferentSubjectsError reports a subject change along the chain.
type DifferentSubjectsError struct {
	failure.NamedWithStackTrace
	expected did.DID
	actual   did.DID
}

func NewDifferentSubjectsError(expected, actual did.DID) error {
	return DifferentSubjectsError{failure.NamedWithCurrentStackTrace("DifferentSubjects"), expected, actual}
}

func (e DifferentSubjectsError) Error() string {
	return fmt.Sprintf("subject changed from %s to %s along the chain", e.expected, e.actual)
}

// CommandNotAttenuatedError reports a command that is not a path extension
// of its parent.
type CommandNotAttenuatedError struct {
	failure.NamedWithStackTrace
	parent nuc.Command
	child  nuc.Command
}

func NewCommandNotAttenuatedError(parent, child nuc.Command) error {
	return CommandNotAttenuatedError{failure.NamedWithCurrentStackTrace("CommandNotAttenuated"), parent, child}
}

func (e CommandNotAttenuatedError) Error() string {
	return fmt.Sprintf("command %s is not an attenuation of %s", e.child, e.parent)
}

// NotBeforeBackwardsError reports a not-before that moves earlier along the
// chain.
type NotBeforeBackwardsError struct {
	failure.NamedWithStackTrace
}

func NewNotBeforeBackwardsError() error {
	return NotBeforeBackwardsError{failure.NamedWithCurrentStackTrace("NotBeforeBackwards")}
}

func (e NotBeforeBackwardsError) Error() string {
	return "token becomes valid before its parent does"
}

// TokenExpiredError reports an expired token anywhere in the chain.
type TokenExpiredError struct {
	failure.NamedWithStackTrace
	expiresAt time.Time
}

func NewTokenExpiredError(expiresAt time.Time) error {
	return TokenExpiredError{failure.NamedWithCurrentStackTrace("TokenExpired"), expiresAt}
}

func (e TokenExpiredError) Error() string {
	return fmt.Sprintf("token expired at %s", e.expiresAt.Format(time.RFC3339))
}

// NotBeforeNotMetError reports a token that is not valid yet.
type NotBeforeNotMetError struct {
	failure.NamedWithStackTrace
	notBefore time.Time
}

func NewNotBeforeNotMetError(notBefore time.Time) error {
	return NotBeforeNotMetError{failure.NamedWithCurrentStackTrace("NotBeforeNotMet"), notBefore}
}

func (e NotBeforeNotMetError) Error() string {
	return fmt.Sprintf("token is not valid until %s", e.notBefore.Format(time.RFC3339))
}

// PolicyTooWideError reports a policy wider than the configured maximum,
// either at the top-level rule list or anywhere inside the tree.
type PolicyTooWideError struct {
	failure.NamedWithStackTrace
	width int
	limit int
}

func NewPolicyTooWideError(width, limit int) error {
	return PolicyTooWideError{failure.NamedWithCurrentStackTrace("PolicyTooWide"), width, limit}
}

func (e PolicyTooWideError) Error() string {
	return fmt.Sprintf("policy width %d exceeds the limit of %d", e.width, e.limit)
}

// PolicyTooDeepError reports a policy tree deeper than the configured
// maximum.
type PolicyTooDeepError struct {
	failure.NamedWithStackTrace
	depth int
	limit int
}

func NewPolicyTooDeepError(depth, limit int) error {
	return PolicyTooDeepError{failure.NamedWithCurrentStackTrace("PolicyTooDeep"), depth, limit}
}

func (e PolicyTooDeepError) Error() string {
	return fmt.Sprintf("policy depth %d exceeds the limit of %d", e.depth, e.limit)
}

// PolicyNotMetError reports an ancestor delegation whose policy rejects the
// invocation.
type PolicyNotMetError struct {
	failure.NamedWithStackTrace
	issuer did.DID
}

func NewPolicyNotMetError(issuer did.DID) error {
	return PolicyNotMetError{failure.NamedWithCurrentStackTrace("PolicyNotMet"), issuer}
}

func (e PolicyNotMetError) Error() string {
	return fmt.Sprintf("policy of the delegation issued by %s is not met", e.issuer)
}

// SubjectNotInChainError reports a chain whose first delegation after the
// root was not self-issued by the subject.
type SubjectNotInChainError struct {
	failure.NamedWithStackTrace
}

func NewSubjectNotInChainError() error {
	return SubjectNotInChainError{failure.NamedWithCurrentStackTrace("SubjectNotInChain")}
}

func (e SubjectNotInChainError) Error() string {
	return "the chain does not start with the subject delegating their own capability"
}

// RootKeySignatureMissingError reports a root token issued outside the
// trusted root issuer set.
type RootKeySignatureMissingError struct {
	failure.NamedWithStackTrace
	issuer did.DID
}

func NewRootKeySignatureMissingError(issuer did.DID) error {
	return RootKeySignatureMissingError{failure.NamedWithCurrentStackTrace("RootKeySignatureMissing"), issuer}
}

func (e RootKeySignatureMissingError) Error() string {
	return fmt.Sprintf("root token issuer %s is not a trusted root", e.issuer)
}

// InvalidAudienceError reports a leaf audience different from the required
// one.
type InvalidAudienceError struct {
	failure.NamedWithStackTrace
	expected did.DID
	actual   did.DID
}

func NewInvalidAudienceError(expected, actual did.DID) error {
	return InvalidAudienceError{failure.NamedWithCurrentStackTrace("InvalidAudience"), expected, actual}
}

func (e InvalidAudienceError) Error() string {
	return fmt.Sprintf("token is addressed to %s, expected %s", e.actual, e.expected)
}

// NeedDelegationError reports an invocation where a delegation was required.
type NeedDelegationError struct {
	failure.NamedWithStackTrace
}

func NewNeedDelegationError() error {
	return NeedDelegationError{failure.NamedWithCurrentStackTrace("NeedDelegation")}
}

func (e NeedDelegationError) Error() string {
	return "a delegation token is required"
}

// NeedInvocationError reports a delegation where an invocation was required.
type NeedInvocationError struct {
	failure.NamedWithStackTrace
}

func NewNeedInvocationError() error {
	return NeedInvocationError{failure.NamedWithCurrentStackTrace("NeedInvocation")}
}

func (e NeedInvocationError) Error() string {
	return "an invocation token is required"
}
