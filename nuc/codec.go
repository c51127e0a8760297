package nuc

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Wire segments are unpadded base64url. The encoding is pinned here because
// signatures and hashes cover the exact wire bytes.

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(str string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(str)
}

// Hash is a SHA-256 digest, carried on the wire as lowercase hex.
type Hash [sha256.Size]byte

// ParseHash decodes a hex proof-hash string.
func ParseHash(str string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(str)
	if err != nil {
		return Hash{}, fmt.Errorf("hex decoding hash: %s", err)
	}
	if len(b) != sha256.Size {
		return Hash{}, fmt.Errorf("invalid hash length: %d wanted: %d", len(b), sha256.Size)
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
