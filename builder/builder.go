// Package builder constructs and signs tokens. It depends only on the
// principal.Signer capability, never on a concrete wallet or key store.
package builder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/nuc"
	"github.com/nillionnetwork/nuc-go/policy"
	"github.com/nillionnetwork/nuc-go/principal"
	"github.com/nillionnetwork/nuc-go/signature"
)

// Builder accumulates draft state for one token. It mutates only itself;
// Build produces immutable values.
type Builder struct {
	body      nuc.Body
	audience  did.DID
	subject   did.DID
	command   nuc.Command
	nonce     string
	notBefore *time.Time
	expiresAt *time.Time
	meta      map[string]any
	parent    *nuc.Token
	ancestors []nuc.Token
}

// Delegation starts a token that grants a capability restricted by a policy.
func Delegation(pol policy.Policy) *Builder {
	return &Builder{body: nuc.DelegationBody{Policy: pol}}
}

// Invocation starts a token that exercises a capability with arguments.
func Invocation(args map[string]any) *Builder {
	return &Builder{body: nuc.InvocationBody{Args: args}}
}

// Audience sets the principal the token is addressed to.
func (b *Builder) Audience(audience did.DID) *Builder {
	b.audience = audience
	return b
}

// Subject sets the principal the capability is about.
func (b *Builder) Subject(subject did.DID) *Builder {
	b.subject = subject
	return b
}

// Command sets the capability path.
func (b *Builder) Command(command nuc.Command) *Builder {
	b.command = command
	return b
}

// NotBefore sets the time the token becomes valid.
func (b *Builder) NotBefore(t time.Time) *Builder {
	t = t.UTC().Truncate(time.Second)
	b.notBefore = &t
	return b
}

// ExpiresAt sets the time the token stops being valid.
func (b *Builder) ExpiresAt(t time.Time) *Builder {
	t = t.UTC().Truncate(time.Second)
	b.expiresAt = &t
	return b
}

// Meta attaches free-form metadata.
func (b *Builder) Meta(meta map[string]any) *Builder {
	b.meta = meta
	return b
}

// Nonce overrides the generated nonce.
func (b *Builder) Nonce(nonce string) *Builder {
	b.nonce = nonce
	return b
}

// Extending chains the token under a parent envelope: the parent becomes the
// single proof, the subject and command are inherited (the command may still
// be attenuated afterwards), and the parent chain rides along as envelope
// proofs.
func (b *Builder) Extending(parent *nuc.Envelope) *Builder {
	b.parent = &parent.Token
	b.subject = parent.Token.Payload.Subject
	b.command = parent.Token.Payload.Command
	b.ancestors = append([]nuc.Token{parent.Token}, parent.Proofs...)
	return b
}

// Build signs the draft and assembles the envelope.
func (b *Builder) Build(signer principal.Signer) (*nuc.Envelope, error) {
	if b.body == nil {
		return nil, fmt.Errorf("token body is not set")
	}
	if !b.audience.Defined() {
		return nil, fmt.Errorf("audience is not set")
	}
	if !b.subject.Defined() {
		return nil, fmt.Errorf("subject is not set")
	}
	if _, err := nuc.ParseCommand(string(b.command)); err != nil {
		return nil, err
	}

	nonce := b.nonce
	if nonce == "" {
		nonce = uuid.NewString()
	}

	payload := nuc.Payload{
		Issuer:    signer.DID(),
		Audience:  b.audience,
		Subject:   b.subject,
		Command:   b.command,
		Nonce:     nonce,
		NotBefore: b.notBefore,
		ExpiresAt: b.expiresAt,
		Meta:      b.meta,
		Body:      b.body,
	}
	if b.parent != nil {
		payload.Proofs = []nuc.Hash{b.parent.ComputeHash()}
	}

	header := signer.Header()
	rawHeader, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %s", err)
	}
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %s", err)
	}

	input, err := signature.SigningInput(header, payload, rawHeader, rawPayload)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(input)
	if err != nil {
		return nil, fmt.Errorf("signing token: %s", err)
	}

	token := nuc.Token{
		Header:     header,
		Payload:    payload,
		RawHeader:  rawHeader,
		RawPayload: rawPayload,
		Signature:  sig,
	}
	return &nuc.Envelope{Token: token, Proofs: b.ancestors}, nil
}

// BuildString signs the draft and serializes the whole chain.
func (b *Builder) BuildString(signer principal.Signer) (string, error) {
	env, err := b.Build(signer)
	if err != nil {
		return "", err
	}
	return env.String(), nil
}
