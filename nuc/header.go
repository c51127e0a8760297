package nuc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// AlgES256K is the only signature algorithm the protocol admits: ECDSA over
// secp256k1 with SHA-256.
const AlgES256K = "ES256K"

// Header type values. An absent typ means native verification, kept for
// tokens minted before the typ field existed.
const (
	TypNative = "nuc"
	TypEip712 = "nuc+eip712"
)

// Header is the decoded token header. The schema is strict: unknown fields
// are rejected so a header cannot smuggle verification parameters past the
// dispatch logic.
type Header struct {
	Alg  string         `json:"alg"`
	Typ  string         `json:"typ,omitempty"`
	Ver  string         `json:"ver,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Eip712 reports whether the header selects typed-data verification.
func (h Header) Eip712() bool {
	return h.Typ == TypEip712
}

// ParseHeader decodes and checks a raw header JSON document.
func ParseHeader(raw []byte) (Header, error) {
	var header Header
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&header); err != nil {
		return Header{}, fmt.Errorf("decoding header: %s", err)
	}
	if dec.More() {
		return Header{}, fmt.Errorf("decoding header: trailing data")
	}
	if err := header.validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}

func (h Header) validate() error {
	if h.Alg == "" {
		return fmt.Errorf("header is missing 'alg'")
	}
	if h.Alg != AlgES256K {
		return fmt.Errorf("unsupported signature algorithm %q", h.Alg)
	}
	switch h.Typ {
	case "", TypNative, TypEip712:
	default:
		return fmt.Errorf("unsupported header type %q", h.Typ)
	}
	if h.Ver != "" {
		if _, err := semver.StrictNewVersion(h.Ver); err != nil {
			return fmt.Errorf("header 'ver' is not a semver: %s", err)
		}
	}
	return nil
}
