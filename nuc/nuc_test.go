package nuc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nillionnetwork/nuc-go/did"
	"github.com/nillionnetwork/nuc-go/policy"
	"github.com/stretchr/testify/require"
)

// well-known compressed secp256k1 points (G, 2G, 3G)
const (
	keyHexA = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	keyHexB = "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
	keyHexC = "02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9"
)

func testDID(t *testing.T, keyHex string) did.DID {
	t.Helper()
	d, err := did.Parse("did:nil:" + keyHex)
	require.NoError(t, err)
	return d
}

func delegationPayload(t *testing.T) Payload {
	t.Helper()
	return Payload{
		Issuer:   testDID(t, keyHexA),
		Audience: testDID(t, keyHexB),
		Subject:  testDID(t, keyHexC),
		Command:  "/nil/db",
		Nonce:    "beef",
		Body:     DelegationBody{Policy: policy.Policy{policy.Equals(policy.MustSelector(".args.foo"), 42)}},
	}
}

func makeToken(t *testing.T, payload Payload, sig []byte) Token {
	t.Helper()
	rawHeader, err := json.Marshal(Header{Alg: AlgES256K, Typ: TypNative})
	require.NoError(t, err)
	rawPayload, err := json.Marshal(payload)
	require.NoError(t, err)
	parsed, err := ParsePayload(rawPayload)
	require.NoError(t, err)
	return Token{
		Header:     Header{Alg: AlgES256K, Typ: TypNative},
		Payload:    parsed,
		RawHeader:  rawHeader,
		RawPayload: rawPayload,
		Signature:  sig,
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	nbf := time.Unix(1700000000, 0).UTC()
	exp := time.Unix(1800000000, 0).UTC()
	src := delegationPayload(t)
	src.NotBefore = &nbf
	src.ExpiresAt = &exp
	src.Meta = map[string]any{"note": "test"}
	src.Proofs = []Hash{{1, 2, 3}}

	b, err := json.Marshal(src)
	require.NoError(t, err)

	decoded, err := ParsePayload(b)
	require.NoError(t, err)
	require.True(t, src.Issuer.Equals(decoded.Issuer))
	require.True(t, src.Audience.Equals(decoded.Audience))
	require.True(t, src.Subject.Equals(decoded.Subject))
	require.Equal(t, src.Command, decoded.Command)
	require.Equal(t, src.Nonce, decoded.Nonce)
	require.Equal(t, src.Meta, decoded.Meta)
	require.Equal(t, src.Proofs, decoded.Proofs)
	require.Equal(t, nbf, *decoded.NotBefore)
	require.Equal(t, exp, *decoded.ExpiresAt)
	_, ok := decoded.Delegation()
	require.True(t, ok)
}

func TestInvocationDiscrimination(t *testing.T) {
	src := delegationPayload(t)
	src.Body = InvocationBody{Args: map[string]any{"foo": float64(42)}}

	b, err := json.Marshal(src)
	require.NoError(t, err)
	require.Contains(t, string(b), `"args"`)
	require.NotContains(t, string(b), `"pol"`)

	decoded, err := ParsePayload(b)
	require.NoError(t, err)
	body, ok := decoded.Invocation()
	require.True(t, ok)
	require.Equal(t, map[string]any{"foo": float64(42)}, body.Args)
}

func TestEmptyPolicySerializesAsEmptyArray(t *testing.T) {
	src := delegationPayload(t)
	src.Body = DelegationBody{}

	b, err := json.Marshal(src)
	require.NoError(t, err)
	require.Contains(t, string(b), `"pol":[]`)

	decoded, err := ParsePayload(b)
	require.NoError(t, err)
	body, ok := decoded.Delegation()
	require.True(t, ok)
	require.Empty(t, body.Policy)
}

func TestEmptyArgsSerializesAsEmptyObject(t *testing.T) {
	src := delegationPayload(t)

	// empty-but-present and nil args must both stay on the wire
	for _, args := range []map[string]any{{}, nil} {
		src.Body = InvocationBody{Args: args}

		b, err := json.Marshal(src)
		require.NoError(t, err)
		require.Contains(t, string(b), `"args":{}`)
		require.NotContains(t, string(b), `"pol"`)

		decoded, err := ParsePayload(b)
		require.NoError(t, err)
		body, ok := decoded.Invocation()
		require.True(t, ok)
		require.Empty(t, body.Args)
	}
}

func TestPayloadRejectsMalformed(t *testing.T) {
	valid, err := json.Marshal(delegationPayload(t))
	require.NoError(t, err)

	mutate := func(f func(m map[string]any)) string {
		var m map[string]any
		require.NoError(t, json.Unmarshal(valid, &m))
		f(m)
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return string(b)
	}

	cases := map[string]string{
		"both pol and args":  mutate(func(m map[string]any) { m["args"] = map[string]any{} }),
		"neither pol nor args": mutate(func(m map[string]any) { delete(m, "pol") }),
		"unknown field":      mutate(func(m map[string]any) { m["extra"] = 1 }),
		"missing nonce":      mutate(func(m map[string]any) { delete(m, "nonce") }),
		"missing issuer":     mutate(func(m map[string]any) { delete(m, "iss") }),
		"bad command":        mutate(func(m map[string]any) { m["cmd"] = "nil/db" }),
		"bad proof hash":     mutate(func(m map[string]any) { m["prf"] = []string{"zz"} }),
		"bad did":            mutate(func(m map[string]any) { m["iss"] = "did:nil:00" }),
	}
	for name, src := range cases {
		_, err := ParsePayload([]byte(src))
		require.Error(t, err, name)
	}
}

func TestHeaderStrictSchema(t *testing.T) {
	h, err := ParseHeader([]byte(`{"alg":"ES256K","typ":"nuc","ver":"1.0.0"}`))
	require.NoError(t, err)
	require.Equal(t, AlgES256K, h.Alg)
	require.False(t, h.Eip712())

	h, err = ParseHeader([]byte(`{"alg":"ES256K","typ":"nuc+eip712","meta":{"domain":{}}}`))
	require.NoError(t, err)
	require.True(t, h.Eip712())

	// legacy: typ absent means native
	h, err = ParseHeader([]byte(`{"alg":"ES256K"}`))
	require.NoError(t, err)
	require.False(t, h.Eip712())

	for name, src := range map[string]string{
		"unknown field": `{"alg":"ES256K","crit":[]}`,
		"missing alg":   `{"typ":"nuc"}`,
		"unknown alg":   `{"alg":"HS256"}`,
		"unknown typ":   `{"alg":"ES256K","typ":"jwt"}`,
		"bad ver":       `{"alg":"ES256K","ver":"one"}`,
	} {
		_, err := ParseHeader([]byte(src))
		require.Error(t, err, name)
	}
}

func TestTokenSerializationRoundTrip(t *testing.T) {
	token := makeToken(t, delegationPayload(t), []byte{1, 2, 3, 4})
	decoded, err := ParseToken(token.String())
	require.NoError(t, err)
	require.Equal(t, token.RawHeader, decoded.RawHeader)
	require.Equal(t, token.RawPayload, decoded.RawPayload)
	require.Equal(t, token.Signature, decoded.Signature)
	require.Equal(t, token.ComputeHash(), decoded.ComputeHash())
}

func TestParseTokenSegments(t *testing.T) {
	token := makeToken(t, delegationPayload(t), []byte{1})
	str := token.String()

	_, err := ParseToken(str + ".extra")
	require.Error(t, err)
	_, err = ParseToken("onlyonesegment")
	require.Error(t, err)

	// padded base64 segments are not wire-legal
	_, err = ParseToken("eyJhbGciOiJFUzI1NksifQ==.e30.AA")
	require.Error(t, err)
}

func TestComputeHashDeterminism(t *testing.T) {
	token := makeToken(t, delegationPayload(t), []byte{0xAA, 0xBB})
	require.Equal(t, token.ComputeHash(), token.ComputeHash())

	flipped := token
	flipped.Signature = append([]byte(nil), token.Signature...)
	flipped.Signature[0] ^= 0x01
	require.NotEqual(t, token.ComputeHash(), flipped.ComputeHash())
}

func TestSignedMessage(t *testing.T) {
	token := makeToken(t, delegationPayload(t), nil)
	msg := token.SignedMessage()
	expected := append(append(append([]byte(nil), token.RawHeader...), '.'), token.RawPayload...)
	require.Equal(t, expected, msg)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	leaf := makeToken(t, delegationPayload(t), []byte{9})
	proof := makeToken(t, delegationPayload(t), []byte{7})
	env := &Envelope{Token: leaf, Proofs: []Token{proof}}

	decoded, err := ParseEnvelope(env.String())
	require.NoError(t, err)
	require.Equal(t, env.String(), decoded.String())
	require.Len(t, decoded.Proofs, 1)
	require.Equal(t, leaf.RawPayload, decoded.Token.RawPayload)
	require.Equal(t, proof.ComputeHash(), decoded.Proofs[0].ComputeHash())
}
