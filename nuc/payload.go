package nuc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/policy"
)

// Body is the variant part of a payload: a delegation carries a policy, an
// invocation carries arguments. It is a closed union.
type Body interface {
	isBody()
}

// DelegationBody is the body of a token that grants a capability restricted
// by a policy.
type DelegationBody struct {
	Policy policy.Policy
}

// InvocationBody is the body of a token that exercises a capability with
// concrete arguments.
type InvocationBody struct {
	Args map[string]any
}

func (DelegationBody) isBody() {}
func (InvocationBody) isBody() {}

// Payload is the signed content of a single token.
type Payload struct {
	Issuer   did.DID
	Audience did.DID
	Subject  did.DID
	Command  Command
	Nonce    string

	// NotBefore and ExpiresAt bound the token's validity window. Either may
	// be unset.
	NotBefore *time.Time
	ExpiresAt *time.Time

	Meta map[string]any

	// Proofs holds the hashes of the tokens this one was derived from. The
	// protocol is a linear chain, so anything beyond one entry is rejected
	// during validation, not here.
	Proofs []Hash

	Body Body
}

// Delegation reports whether the payload carries a delegation body and
// returns it.
func (p Payload) Delegation() (DelegationBody, bool) {
	body, ok := p.Body.(DelegationBody)
	return body, ok
}

// Invocation reports whether the payload carries an invocation body and
// returns it.
func (p Payload) Invocation() (InvocationBody, bool) {
	body, ok := p.Body.(InvocationBody)
	return body, ok
}

// payloadModel is the wire shape. Delegations and invocations are
// discriminated by the presence of "pol", never by an explicit kind tag, to
// stay compatible with clients that omit one.
type payloadModel struct {
	Iss   did.DID        `json:"iss"`
	Aud   did.DID        `json:"aud"`
	Sub   did.DID        `json:"sub"`
	Cmd   string         `json:"cmd"`
	// Pol and Args are pointers so that empty values still serialize as
	// "pol":[] / "args":{} instead of being elided, keeping the
	// exactly-one-of-the-two wire shape intact.
	Pol  *policy.Policy  `json:"pol,omitempty"`
	Args *map[string]any `json:"args,omitempty"`
	Nonce string         `json:"nonce"`
	Nbf   *int64         `json:"nbf,omitempty"`
	Exp   *int64         `json:"exp,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Prf   []string       `json:"prf,omitempty"`
}

// ParsePayload decodes and checks a raw payload JSON document.
func ParsePayload(raw []byte) (Payload, error) {
	var model payloadModel
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&model); err != nil {
		return Payload{}, fmt.Errorf("decoding payload: %s", err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("decoding payload: trailing data")
	}

	if !model.Iss.Defined() || !model.Aud.Defined() || !model.Sub.Defined() {
		return Payload{}, fmt.Errorf("payload is missing 'iss', 'aud' or 'sub'")
	}
	if model.Nonce == "" {
		return Payload{}, fmt.Errorf("payload is missing 'nonce'")
	}
	cmd, err := ParseCommand(model.Cmd)
	if err != nil {
		return Payload{}, err
	}

	var body Body
	switch {
	case model.Pol != nil && model.Args != nil:
		return Payload{}, fmt.Errorf("payload carries both 'pol' and 'args'")
	case model.Pol != nil:
		body = DelegationBody{Policy: *model.Pol}
	case model.Args != nil:
		body = InvocationBody{Args: *model.Args}
	default:
		return Payload{}, fmt.Errorf("payload carries neither 'pol' nor 'args'")
	}

	proofs := make([]Hash, 0, len(model.Prf))
	for _, str := range model.Prf {
		h, err := ParseHash(str)
		if err != nil {
			return Payload{}, fmt.Errorf("decoding proof hash: %s", err)
		}
		proofs = append(proofs, h)
	}

	payload := Payload{
		Issuer:   model.Iss,
		Audience: model.Aud,
		Subject:  model.Sub,
		Command:  cmd,
		Nonce:    model.Nonce,
		Meta:     model.Meta,
		Proofs:   proofs,
		Body:     body,
	}
	if model.Nbf != nil {
		t := time.Unix(*model.Nbf, 0).UTC()
		payload.NotBefore = &t
	}
	if model.Exp != nil {
		t := time.Unix(*model.Exp, 0).UTC()
		payload.ExpiresAt = &t
	}
	return payload, nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	model := payloadModel{
		Iss:   p.Issuer,
		Aud:   p.Audience,
		Sub:   p.Subject,
		Cmd:   string(p.Command),
		Nonce: p.Nonce,
		Meta:  p.Meta,
	}
	switch body := p.Body.(type) {
	case DelegationBody:
		pol := body.Policy
		if pol == nil {
			pol = policy.Policy{}
		}
		model.Pol = &pol
	case InvocationBody:
		args := body.Args
		if args == nil {
			args = map[string]any{}
		}
		model.Args = &args
	default:
		return nil, fmt.Errorf("payload has no body")
	}
	if p.NotBefore != nil {
		nbf := p.NotBefore.Unix()
		model.Nbf = &nbf
	}
	if p.ExpiresAt != nil {
		exp := p.ExpiresAt.Unix()
		model.Exp = &exp
	}
	for _, h := range p.Proofs {
		model.Prf = append(model.Prf, h.String())
	}
	return json.Marshal(model)
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	payload, err := ParsePayload(b)
	if err != nil {
		return err
	}
	*p = payload
	return nil
}
