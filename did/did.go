package did

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

const Prefix = "did:"

// MulticodecSecp256k1Pub is the multicodec code for a compressed secp256k1
// public key, used in the did:key encoding.
const MulticodecSecp256k1Pub = 0xe7

const compressedKeySize = 33

// Method identifies the DID method a DID was expressed under.
type Method string

const (
	// MethodKey is the did:key method: a multibase (base58btc) encoding of
	// the multicodec-tagged compressed public key.
	MethodKey Method = "key"
	// MethodNil is the legacy did:nil method: the compressed public key as
	// lowercase hex. Deprecated in favour of did:key but still accepted.
	MethodNil Method = "nil"
	// MethodEthr is the did:ethr method: a 20-byte EVM address.
	MethodEthr Method = "ethr"
)

// ErrUnsupportedMethod is returned by Parse when the DID method is not one
// this package knows how to decode.
var ErrUnsupportedMethod = fmt.Errorf("unsupported DID method")

// DID is a decentralized identifier under one of the supported methods. It
// is a closed union: key-backed methods carry the raw compressed public key,
// the ethr method carries an address.
type DID struct {
	method  Method
	key     []byte
	address string
}

// Undef can be used to represent a nil or undefined DID.
var Undef = DID{}

func (d DID) Defined() bool {
	return d.method != ""
}

func (d DID) Method() Method {
	return d.method
}

// Key returns the raw compressed public key bytes, or nil if the method does
// not expose key material.
func (d DID) Key() []byte {
	return d.key
}

// Address returns the lowercase 0x-prefixed address for address-backed
// methods, or the empty string.
func (d DID) Address() string {
	return d.address
}

// PublicKey parses the embedded key material into a secp256k1 public key.
func (d DID) PublicKey() (*btcec.PublicKey, error) {
	if len(d.key) == 0 {
		return nil, fmt.Errorf("did:%s does not carry a public key", d.method)
	}
	return btcec.ParsePubKey(d.key)
}

func (d DID) String() string {
	switch d.method {
	case MethodKey:
		size := varint.UvarintSize(MulticodecSecp256k1Pub)
		tagged := make([]byte, size+len(d.key))
		varint.PutUvarint(tagged, MulticodecSecp256k1Pub)
		copy(tagged[size:], d.key)
		str, err := multibase.Encode(multibase.Base58BTC, tagged)
		if err != nil {
			return ""
		}
		return Prefix + string(MethodKey) + ":" + str
	case MethodNil:
		return Prefix + string(MethodNil) + ":" + hex.EncodeToString(d.key)
	case MethodEthr:
		return Prefix + string(MethodEthr) + ":" + d.address
	}
	return ""
}

// Equals determines equality between two DIDs. When both sides expose raw
// public key bytes those are compared directly, so the same key is
// recognised across the did:key and did:nil encodings. Otherwise equality is
// structural on method and address (addresses compare case-insensitively).
func (d DID) Equals(other DID) bool {
	if len(d.key) > 0 && len(other.key) > 0 {
		return bytes.Equal(d.key, other.key)
	}
	return d.method == other.method && strings.EqualFold(d.address, other.address)
}

func (d DID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DID) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	id, err := Parse(str)
	if err != nil {
		return err
	}
	*d = id
	return nil
}

// FromPublicKey creates a did:key DID from a secp256k1 public key.
func FromPublicKey(key *btcec.PublicKey) DID {
	return DID{method: MethodKey, key: key.SerializeCompressed()}
}

// FromLegacyPublicKey creates a did:nil DID from a secp256k1 public key.
func FromLegacyPublicKey(key *btcec.PublicKey) DID {
	return DID{method: MethodNil, key: key.SerializeCompressed()}
}

// FromAddress creates a did:ethr DID from a 0x-prefixed EVM address.
func FromAddress(address string) (DID, error) {
	if err := checkAddress(address); err != nil {
		return Undef, err
	}
	return DID{method: MethodEthr, address: strings.ToLower(address)}, nil
}

// Parse converts a DID string into a DID value, failing with
// ErrUnsupportedMethod for methods outside the supported set.
func Parse(str string) (DID, error) {
	if !strings.HasPrefix(str, Prefix) {
		return Undef, fmt.Errorf("must start with 'did:'")
	}
	method, value, found := strings.Cut(str[len(Prefix):], ":")
	if !found {
		return Undef, fmt.Errorf("missing method-specific identifier")
	}
	switch Method(method) {
	case MethodKey:
		return parseKey(value)
	case MethodNil:
		return parseLegacyKey(value)
	case MethodEthr:
		return FromAddress(value)
	}
	return Undef, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
}

func parseKey(value string) (DID, error) {
	_, data, err := multibase.Decode(value)
	if err != nil {
		return Undef, fmt.Errorf("multibase decoding did:key: %s", err)
	}
	code, err := varint.ReadUvarint(bytes.NewReader(data))
	if err != nil {
		return Undef, fmt.Errorf("reading did:key multicodec: %s", err)
	}
	if code != MulticodecSecp256k1Pub {
		return Undef, fmt.Errorf("unexpected did:key multicodec: 0x%x", code)
	}
	return keyDID(MethodKey, data[varint.UvarintSize(code):])
}

func parseLegacyKey(value string) (DID, error) {
	data, err := hex.DecodeString(value)
	if err != nil {
		return Undef, fmt.Errorf("hex decoding did:nil: %s", err)
	}
	return keyDID(MethodNil, data)
}

func keyDID(method Method, data []byte) (DID, error) {
	if len(data) != compressedKeySize {
		return Undef, fmt.Errorf("invalid key length: %d wanted: %d", len(data), compressedKeySize)
	}
	if _, err := btcec.ParsePubKey(data); err != nil {
		return Undef, fmt.Errorf("parsing public key: %s", err)
	}
	key := make([]byte, compressedKeySize)
	copy(key, data)
	return DID{method: method, key: key}, nil
}

func checkAddress(address string) error {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("address must be 0x followed by 40 hex characters")
	}
	if _, err := hex.DecodeString(address[2:]); err != nil {
		return fmt.Errorf("address is not valid hex: %s", err)
	}
	return nil
}
