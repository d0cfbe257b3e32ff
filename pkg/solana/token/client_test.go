package token

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/solana"
)

type accountInfoStub map[string]solana.AccountInfo

func (s accountInfoStub) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := s[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

type failingGetter struct{}

func (failingGetter) GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error) {
	return solana.AccountInfo{}, errors.New("unavailable")
}

func TestClient_GetAssociatedAccount(t *testing.T) {
	keys := generateKeys(t, 3)
	owner, mint, otherMint := keys[0], keys[1], keys[2]

	address, err := GetAssociatedAccount(owner, mint)
	require.NoError(t, err)

	stub := accountInfoStub{}
	c := NewClient(stub, mint)
	assert.Equal(t, mint, c.Mint())

	_, _, err = c.GetAssociatedAccount(owner, solana.CommitmentConfirmed)
	assert.Equal(t, ErrAccountNotFound, err)

	account := Account{
		Mint:   mint,
		Owner:  owner,
		Amount: 42,
		State:  AccountStateInitialized,
	}
	stub[string(address)] = solana.AccountInfo{
		Owner: ProgramKey,
		Data:  account.Marshal(),
	}

	actualAddress, actual, err := c.GetAssociatedAccount(owner, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, address, actualAddress)
	assert.EqualValues(t, 42, actual.Amount)
	assert.EqualValues(t, owner, actual.Owner)

	_, err = NewClient(stub, otherMint).GetAccount(address, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	stub[string(address)] = solana.AccountInfo{
		Owner: owner,
		Data:  account.Marshal(),
	}
	_, err = c.GetAccount(address, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = NewClient(failingGetter{}, mint).GetAccount(address, solana.CommitmentConfirmed)
	assert.Error(t, err)
	assert.NotEqual(t, ErrAccountNotFound, err)
}
