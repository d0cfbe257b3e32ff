package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/testutil"
)

func TestAccount_MainnetSnapshot(t *testing.T) {
	data, err := hex.DecodeString("118a08c9d4cc46c576282e0daf050bbdb04f03313e35e5db3f3def69fa1eeec42b15a9cd4bef2cd809e464570d2a6cbd9bcc64e32ea4ebbcf748757bbb3dd5bd000084e2506ce67c000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	mint, err := base58.Decode("2BU1Xgyzqixhjaq9Pa5cNsaa1gSejLeNtDaDRv29qoZm")
	require.NoError(t, err)

	var account Account
	require.True(t, account.Unmarshal(data))
	assert.EqualValues(t, mint, account.Mint)
	assert.EqualValues(t, 9e13*1e5, account.Amount)
	assert.Equal(t, AccountStateInitialized, account.State)
	assert.Nil(t, account.Delegate)
	assert.Nil(t, account.IsNative)
	assert.Nil(t, account.CloseAuthority)

	assert.Equal(t, data, account.Marshal())
}

func TestAccount_OptionalFields(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	reserve := uint64(2_039_280)

	expected := Account{
		Mint:            keys[0],
		Owner:           keys[1],
		Amount:          10,
		Delegate:        keys[2],
		State:           AccountStateFrozen,
		IsNative:        &reserve,
		DelegatedAmount: 7,
		CloseAuthority:  keys[3],
	}

	var actual Account
	require.True(t, actual.Unmarshal(expected.Marshal()))
	assert.Equal(t, expected, actual)

	assert.False(t, actual.Unmarshal(make([]byte, AccountSize+1)))
}

func TestAccount_CrossImpl(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	account := Account{
		Mint:   keys[0],
		Owner:  keys[1],
		Amount: 42,
		State:  AccountStateInitialized,
	}

	decoded, err := sdktoken.TokenAccountFromData(account.Marshal())
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decoded.Mint.Bytes())
	assert.EqualValues(t, keys[1], decoded.Owner.Bytes())
	assert.EqualValues(t, 42, decoded.Amount)
	assert.Nil(t, decoded.Delegate)
	assert.Nil(t, decoded.CloseAuthority)
}

func TestMint_CrossImpl(t *testing.T) {
	authority, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expected := Mint{
		MintAuthority: authority,
		Supply:        1_000_000_000,
		Decimals:      6,
		IsInitialized: true,
	}
	data := expected.Marshal()
	require.Len(t, data, MintSize)

	decoded, err := sdktoken.MintAccountFromData(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.MintAuthority)
	assert.EqualValues(t, authority, decoded.MintAuthority.Bytes())
	assert.EqualValues(t, 1_000_000_000, decoded.Supply)
	assert.EqualValues(t, 6, decoded.Decimals)
	assert.True(t, decoded.IsInitialized)
	assert.Nil(t, decoded.FreezeAuthority)

	var actual Mint
	require.True(t, actual.Unmarshal(data))
	assert.Equal(t, expected, actual)

	assert.False(t, actual.Unmarshal(data[:MintSize-1]))
}
