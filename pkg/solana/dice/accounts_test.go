package dice

import (
	"crypto/sha256"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountDiscriminators(t *testing.T) {
	h := sha256.Sum256([]byte("account:GlobalPool"))
	assert.Equal(t, h[:8], GlobalPoolAccountDiscriminator)

	h = sha256.Sum256([]byte("account:UserPool"))
	assert.Equal(t, h[:8], UserPoolAccountDiscriminator)

	assert.Equal(t, 688, GlobalPoolAccountSize)
	assert.Equal(t, 848, UserPoolAccountSize)
}

func TestGlobalPoolAccount_Unmarshal(t *testing.T) {
	keys := generateKeys(t, 4)

	data, err := MarshalGlobalPool(keys[0], keys[1:])
	require.NoError(t, err)
	require.Len(t, data, GlobalPoolAccountSize)

	var pool GlobalPoolAccount
	require.NoError(t, pool.Unmarshal(data))
	assert.EqualValues(t, keys[0], pool.Admin)
	assert.EqualValues(t, 3, pool.TokenCount)
	require.Len(t, pool.TokenAddresses, 3)
	for i, mint := range keys[1:] {
		assert.EqualValues(t, mint, pool.TokenAddresses[i])
		assert.Equal(t, i, pool.IndexOf(mint))
	}
	assert.Equal(t, -1, pool.IndexOf(keys[0]))
	assert.Contains(t, pool.String(), "token_count=3")

	// Trailing bytes beyond the record are ignored.
	require.NoError(t, pool.Unmarshal(append(data, 0xff)))
}

func TestGlobalPoolAccount_Malformed(t *testing.T) {
	keys := generateKeys(t, 1)

	data, err := MarshalGlobalPool(keys[0], nil)
	require.NoError(t, err)

	var pool GlobalPoolAccount
	assert.Equal(t, ErrInvalidAccountData, pool.Unmarshal(data[:GlobalPoolAccountSize-1]))

	wrongType := append([]byte{}, data...)
	copy(wrongType, UserPoolAccountDiscriminator)
	assert.Equal(t, ErrInvalidAccountData, pool.Unmarshal(wrongType))

	tooMany := append([]byte{}, data...)
	tooMany[GlobalPoolAccountSize-8] = MaxTokens + 1
	assert.Equal(t, ErrInvalidAccountData, errors.Cause(pool.Unmarshal(tooMany)))
}

func TestUserPoolAccount_Unmarshal(t *testing.T) {
	keys := generateKeys(t, 4)

	data, err := MarshalUserPool(keys[0], 42, map[int]AssetBalance{
		5:  {Mint: keys[2], Amount: 500},
		1:  {Mint: keys[1], Amount: 100},
		19: {Mint: keys[3], Amount: 0},
	})
	require.NoError(t, err)
	require.Len(t, data, UserPoolAccountSize)

	var pool UserPoolAccount
	require.NoError(t, pool.Unmarshal(data))
	assert.EqualValues(t, keys[0], pool.User)
	assert.EqualValues(t, 42, pool.SolAmount)

	require.Len(t, pool.Assets, 3)
	assert.EqualValues(t, keys[1:], pool.TokenAddresses())
	assert.Equal(t, []uint64{100, 500, 0}, pool.TokenAmounts())

	assert.EqualValues(t, 500, pool.Balance(keys[2]))
	assert.True(t, pool.Holds(keys[3]))
	assert.False(t, pool.Holds(keys[0]))
	assert.Zero(t, pool.Balance(keys[0]))
	assert.Contains(t, pool.String(), "sol_amount=42")
}

func TestUserPoolAccount_Empty(t *testing.T) {
	keys := generateKeys(t, 1)

	data, err := MarshalUserPool(keys[0], 0, nil)
	require.NoError(t, err)

	var pool UserPoolAccount
	require.NoError(t, pool.Unmarshal(data))
	assert.Empty(t, pool.Assets)
	assert.Empty(t, pool.TokenAddresses())
	assert.Empty(t, pool.TokenAmounts())
}

func TestUserPoolAccount_Malformed(t *testing.T) {
	keys := generateKeys(t, 1)

	data, err := MarshalUserPool(keys[0], 0, nil)
	require.NoError(t, err)

	var pool UserPoolAccount
	assert.Equal(t, ErrInvalidAccountData, pool.Unmarshal(data[:100]))
	assert.Equal(t, ErrInvalidAccountData, pool.Unmarshal(make([]byte, UserPoolAccountSize)))

	_, err = MarshalUserPool(keys[0], 0, map[int]AssetBalance{MaxTokens: {}})
	assert.Error(t, err)
}
