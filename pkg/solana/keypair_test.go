package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypairSigner_File(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded, err := MarshalKeypair(priv)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	signer, err := LoadKeypairFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, pub, signer.PublicKey())

	keys := generateKeys(t, 1)
	txn := NewTransaction(signer.PublicKey(), NewInstruction(keys[0].Public().(ed25519.PublicKey), []byte{1}))
	require.NoError(t, signer.Sign(&txn))
	assert.NoError(t, txn.Verify())
}

func TestParseKeypair_Invalid(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	for _, data := range []string{
		`"not an array"`,
		`[1, 2, 3]`,
	} {
		_, err := ParseKeypair([]byte(data))
		assert.Error(t, err)
	}

	mismatched := append(ed25519.PrivateKey{}, priv...)
	mismatched[63] ^= 0xff
	encoded, err := MarshalKeypair(mismatched)
	require.NoError(t, err)
	_, err = ParseKeypair(encoded)
	assert.Error(t, err)

	_, err = LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
