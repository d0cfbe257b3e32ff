package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/memory"
	"github.com/code-payments/dice-client/pkg/solana/token"
	"github.com/code-payments/dice-client/pkg/testutil"
)

func TestResolveDecimals(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New()
	resolver := NewDecimalResolver(ledger, solana.CommitmentConfirmed)

	keys := testutil.GenerateSolanaKeys(t, 3)
	owner, mint, unknown := keys[0], keys[1], keys[2]

	_, ok := resolver.ResolveDecimals(ctx, owner, unknown)
	assert.False(t, ok)

	// Without an associated account the mint is consulted.
	ledger.AddMint(mint, 6)
	exp, ok := resolver.ResolveDecimals(ctx, owner, mint)
	assert.True(t, ok)
	assert.EqualValues(t, 1_000_000, exp)

	_, err := ledger.AddTokenAccount(owner, mint, 42)
	assert.NoError(t, err)
	exp, ok = resolver.ResolveDecimals(ctx, owner, mint)
	assert.True(t, ok)
	assert.EqualValues(t, 1_000_000, exp)

	zero := testutil.GenerateSolanaKeys(t, 1)[0]
	ledger.AddMint(zero, 0)
	exp, ok = resolver.ResolveDecimals(ctx, owner, zero)
	assert.True(t, ok)
	assert.EqualValues(t, 1, exp)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, ok = resolver.ResolveDecimals(canceled, owner, mint)
	assert.False(t, ok)
}

func TestResolveDecimals_NotAMint(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New()
	resolver := NewDecimalResolver(ledger, solana.CommitmentConfirmed)

	keys := testutil.GenerateSolanaKeys(t, 2)
	owner, notMint := keys[0], keys[1]

	ledger.Fund(notMint, 1_000)
	_, ok := resolver.ResolveDecimals(ctx, owner, notMint)
	assert.False(t, ok)

	ledger.SetAccount(notMint, &memory.Account{
		Owner: token.ProgramKey,
		Data:  make([]byte, 10),
	})
	_, ok = resolver.ResolveDecimals(ctx, owner, notMint)
	assert.False(t, ok)

	// Uninitialized mints carry no meaningful decimals.
	ledger.SetAccount(notMint, &memory.Account{
		Owner: token.ProgramKey,
		Data:  make([]byte, token.MintSize),
	})
	_, ok = resolver.ResolveDecimals(ctx, owner, notMint)
	assert.False(t, ok)
}
