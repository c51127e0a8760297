// Package validator checks token chains: structural shape, issuer/audience
// continuity, command attenuation, validity windows, transitive policy
// evaluation and signatures. A single Validate call covers the whole
// envelope and surfaces exactly one failure.
package validator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
	"github.com/nillionnetwork/nuc-go/signature"
)

// Parameters bound the work a single validation may perform. They are a
// DoS defense: chain length and policy shape are checked before any
// recursive evaluation or cryptographic work.
type Parameters struct {
	MaxChainLength int
	MaxPolicyWidth int
	MaxPolicyDepth int
}

// DefaultParameters returns the standard limits.
func DefaultParameters() Parameters {
	return Parameters{
		MaxChainLength: 5,
		MaxPolicyWidth: 10,
		MaxPolicyDepth: 5,
	}
}

func (p Parameters) validate() error {
	if p.MaxChainLength <= 0 || p.MaxPolicyWidth <= 0 || p.MaxPolicyDepth <= 0 {
		return fmt.Errorf("validation parameters must be positive")
	}
	return nil
}

// Kind names a token payload kind in requirements.
type Kind string

const (
	KindDelegation Kind = "delegation"
	KindInvocation Kind = "invocation"
)

// TokenRequirements constrains what the leaf token must be.
type TokenRequirements struct {
	Kind     Kind
	Audience did.DID
}

type config struct {
	parameters   Parameters
	requirements *TokenRequirements
	context      map[string]any
	now          func() time.Time
}

// Option configures a Validate call.
type Option func(*config)

// WithParameters overrides the default limits.
func WithParameters(p Parameters) Option {
	return func(c *config) {
		c.parameters = p
	}
}

// WithRequirements requires the leaf token to have a specific kind and
// audience.
func WithRequirements(r TokenRequirements) Option {
	return func(c *config) {
		c.requirements = &r
	}
}

// WithContext supplies the external data policies can address through the
// "$." selector prefix.
func WithContext(context map[string]any) Option {
	return func(c *config) {
		c.context = context
	}
}

// WithTimeSource overrides the wall clock for temporal checks.
func WithTimeSource(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// ValidatedEnvelope is the proof that an envelope went through Validate
// successfully; it cannot be obtained any other way.
type ValidatedEnvelope struct {
	env *nuc.Envelope
}

// Envelope returns the validated envelope.
func (v ValidatedEnvelope) Envelope() *nuc.Envelope {
	return v.env
}

// Token returns the validated leaf token.
func (v ValidatedEnvelope) Token() nuc.Token {
	return v.env.Token
}

// Validate checks the whole envelope against the given trusted root issuer
// set. Cheap structural and policy checks run first; signature verification
// runs last, after everything else has passed.
func Validate(env *nuc.Envelope, rootIssuers []did.DID, options ...Option) (ValidatedEnvelope, error) {
	cfg := config{
		parameters: DefaultParameters(),
		now:        time.Now,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if err := cfg.parameters.validate(); err != nil {
		return ValidatedEnvelope{}, err
	}

	if length := len(env.Proofs) + 1; length > cfg.parameters.MaxChainLength {
		return ValidatedEnvelope{}, NewChainTooLongError(length, cfg.parameters.MaxChainLength)
	}
	leaf := env.Token
	if len(leaf.Payload.Proofs) > 1 {
		return ValidatedEnvelope{}, NewTooManyProofsError(len(leaf.Payload.Proofs))
	}

	var ancestors []nuc.Token
	if len(leaf.Payload.Proofs) == 1 {
		sorted, err := SortProofs(leaf.Payload.Proofs[0], env.Proofs)
		if err != nil {
			return ValidatedEnvelope{}, err
		}
		ancestors = sorted
	} else if len(env.Proofs) > 0 {
		return ValidatedEnvelope{}, NewUnchainedProofsError(len(env.Proofs))
	}

	// root-first payload sequence [p0 .. leaf]
	chain := make([]nuc.Payload, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		chain = append(chain, ancestors[i].Payload)
	}
	chain = append(chain, leaf.Payload)

	if len(rootIssuers) > 0 && !isTrustedRoot(chain[0].Issuer, rootIssuers) {
		return ValidatedEnvelope{}, NewRootKeySignatureMissingError(chain[0].Issuer)
	}
	for _, ancestor := range chain[:len(chain)-1] {
		if _, ok := ancestor.Delegation(); !ok {
			return ValidatedEnvelope{}, NewProofsMustBeDelegationsError()
		}
	}

	if err := validateChain(chain, cfg); err != nil {
		return ValidatedEnvelope{}, err
	}
	if err := validateLeaf(&leaf, chain, cfg); err != nil {
		return ValidatedEnvelope{}, err
	}

	// signatures last: structural rejects are cheap, curve math is not
	if err := signature.VerifyEnvelope(env); err != nil {
		return ValidatedEnvelope{}, err
	}
	return ValidatedEnvelope{env: env}, nil
}

func isTrustedRoot(issuer did.DID, roots []did.DID) bool {
	for _, root := range roots {
		if issuer.Equals(root) {
			return true
		}
	}
	return false
}

// validateChain runs the pairwise and per-token invariants over the
// root-first payload sequence.
func validateChain(chain []nuc.Payload, cfg config) error {
	for i := 0; i < len(chain)-1; i++ {
		if err := validateRelationship(chain[i], chain[i+1]); err != nil {
			return err
		}
	}
	now := cfg.now()
	for _, payload := range chain {
		if err := validateToken(payload, now, cfg.parameters); err != nil {
			return err
		}
	}
	if len(chain) >= 2 && !chain[1].Issuer.Equals(chain[1].Subject) {
		return NewSubjectNotInChainError()
	}
	return nil
}

// validateRelationship checks one parent/child link, first failure wins.
func validateRelationship(parent, child nuc.Payload) error {
	if !parent.Audience.Equals(child.Issuer) {
		return NewIssuerAudienceMismatchError(parent.Audience, child.Issuer)
	}
	if !parent.Subject.Equals(child.Subject) {
		return NewDifferentSubjectsError(parent.Subject, child.Subject)
	}
	if !child.Command.IsAttenuationOf(parent.Command) {
		return NewCommandNotAttenuatedError(parent.Command, child.Command)
	}
	if parent.NotBefore != nil && child.NotBefore != nil && child.NotBefore.Before(*parent.NotBefore) {
		return NewNotBeforeBackwardsError()
	}
	return nil
}

// validateToken checks the temporal window and the policy size limits of a
// single payload.
func validateToken(payload nuc.Payload, now time.Time, params Parameters) error {
	if payload.ExpiresAt != nil && !payload.ExpiresAt.After(now) {
		return NewTokenExpiredError(*payload.ExpiresAt)
	}
	if payload.NotBefore != nil && payload.NotBefore.After(now) {
		return NewNotBeforeNotMetError(*payload.NotBefore)
	}
	body, ok := payload.Delegation()
	if !ok {
		return nil
	}
	// the top-level rule list and the recursive shape are limited
	// independently
	if len(body.Policy) > params.MaxPolicyWidth {
		return NewPolicyTooWideError(len(body.Policy), params.MaxPolicyWidth)
	}
	shape := body.Policy.TreeShape()
	if shape.MaxWidth > params.MaxPolicyWidth {
		return NewPolicyTooWideError(shape.MaxWidth, params.MaxPolicyWidth)
	}
	if shape.MaxDepth > params.MaxPolicyDepth {
		return NewPolicyTooDeepError(shape.MaxDepth, params.MaxPolicyDepth)
	}
	return nil
}

// validateLeaf runs the payload-kind checks: transitive policy evaluation
// for invocations and the optional caller-supplied requirement.
func validateLeaf(leaf *nuc.Token, chain []nuc.Payload, cfg config) error {
	if _, ok := leaf.Payload.Invocation(); ok {
		var doc any
		if err := json.Unmarshal(leaf.RawPayload, &doc); err != nil {
			return fmt.Errorf("decoding invocation payload: %s", err)
		}
		for _, ancestor := range chain[:len(chain)-1] {
			body, ok := ancestor.Delegation()
			if !ok {
				return NewProofsMustBeDelegationsError()
			}
			if !body.Policy.Evaluate(doc, cfg.context) {
				return NewPolicyNotMetError(ancestor.Issuer)
			}
		}
	}

	if cfg.requirements == nil {
		return nil
	}
	switch cfg.requirements.Kind {
	case KindDelegation:
		if _, ok := leaf.Payload.Delegation(); !ok {
			return NewNeedDelegationError()
		}
	case KindInvocation:
		if _, ok := leaf.Payload.Invocation(); !ok {
			return NewNeedInvocationError()
		}
	}
	if !leaf.Payload.Audience.Equals(cfg.requirements.Audience) {
		return NewInvalidAudienceError(cfg.requirements.Audience, leaf.Payload.Audience)
	}
	return nil
}
