package nuc

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Token is one signed unit of a chain. The raw header and payload bytes are
// retained verbatim: the signature covers exactly those bytes, and
// re-serializing the parsed forms would silently produce different ones.
type Token struct {
	Header  Header
	Payload Payload

	RawHeader  []byte
	RawPayload []byte
	Signature  []byte
}

// ParseToken decodes a single serialized token of the form
// base64url(header).base64url(payload).base64url(signature).
func ParseToken(str string) (Token, error) {
	parts := strings.Split(str, ".")
	if len(parts) != 3 {
		return Token{}, fmt.Errorf("token must have 3 segments, got %d", len(parts))
	}
	rawHeader, err := decodeSegment(parts[0])
	if err != nil {
		return Token{}, fmt.Errorf("decoding header segment: %s", err)
	}
	rawPayload, err := decodeSegment(parts[1])
	if err != nil {
		return Token{}, fmt.Errorf("decoding payload segment: %s", err)
	}
	sig, err := decodeSegment(parts[2])
	if err != nil {
		return Token{}, fmt.Errorf("decoding signature segment: %s", err)
	}
	header, err := ParseHeader(rawHeader)
	if err != nil {
		return Token{}, err
	}
	payload, err := ParsePayload(rawPayload)
	if err != nil {
		return Token{}, err
	}
	return Token{
		Header:     header,
		Payload:    payload,
		RawHeader:  rawHeader,
		RawPayload: rawPayload,
		Signature:  sig,
	}, nil
}

// String serializes the token from its retained bytes.
func (t Token) String() string {
	return encodeSegment(t.RawHeader) + "." + encodeSegment(t.RawPayload) + "." + encodeSegment(t.Signature)
}

// ComputeHash returns the SHA-256 digest of the serialized token. Proof
// references between tokens are expressed as this hash.
func (t Token) ComputeHash() Hash {
	return sha256.Sum256([]byte(t.String()))
}

// SignedMessage returns the bytes a native signature covers: the raw header
// bytes, a dot, and the raw payload bytes.
func (t Token) SignedMessage() []byte {
	msg := make([]byte, 0, len(t.RawHeader)+1+len(t.RawPayload))
	msg = append(msg, t.RawHeader...)
	msg = append(msg, '.')
	msg = append(msg, t.RawPayload...)
	return msg
}
