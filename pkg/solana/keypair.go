package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Signer authorizes transactions on behalf of a single account.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(*Transaction) error
}

// KeypairSigner signs with an in-process ed25519 key.
type KeypairSigner struct {
	key ed25519.PrivateKey
}

func NewKeypairSigner(key ed25519.PrivateKey) *KeypairSigner {
	return &KeypairSigner{key: key}
}

// LoadKeypairFile reads a keypair in the Solana CLI format: a JSON array of
// the 64 secret key bytes.
func LoadKeypairFile(path string) (*KeypairSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair %s", path)
	}
	return ParseKeypair(data)
}

func ParseKeypair(data []byte) (*KeypairSigner, error) {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "keypair is not a json byte array")
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length %d", len(values))
	}

	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid keypair byte at %d", i)
		}
		key[i] = byte(v)
	}

	// The trailing half must be the public key of the leading seed.
	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !derived.Equal(key) {
		return nil, errors.New("keypair public key does not match its secret")
	}

	return &KeypairSigner{key: key}, nil
}

func (s *KeypairSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

func (s *KeypairSigner) Sign(txn *Transaction) error {
	return txn.Sign(s.key)
}

func (s *KeypairSigner) String() string {
	return base58.Encode(s.PublicKey())
}

// MarshalKeypair encodes key in the Solana CLI keypair format.
func MarshalKeypair(key ed25519.PrivateKey) ([]byte, error) {
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	return json.Marshal(values)
}
