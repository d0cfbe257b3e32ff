package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/escrow"
	"github.com/code-payments/dice-client/pkg/solana/dice"
	"github.com/code-payments/dice-client/pkg/testutil"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{
		"init",
		"init-sol-pool",
		"init-token-pool",
		"init-user-pool",
		"deposit-sol",
		"withdraw-sol",
		"deposit-token",
		"withdraw-token",
		"global-state",
		"user-state",
	}, names)
}

func TestRootCmd_MissingFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"deposit-token", "--ex", "0", "--amount", "1"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mint")
}

func TestParsePubkey(t *testing.T) {
	key, err := parsePubkey("mint", "77WPfiSfVcYHZQKNUZH6wbB6v1dXieX4upy2UuTMGSj2")
	require.NoError(t, err)
	assert.EqualValues(t, dice.PROGRAM_ID, key)

	_, err = parsePubkey("mint", "not-base58-0OIl")
	assert.Error(t, err)

	_, err = parsePubkey("mint", "3mJr7AoUXx2Wqd")
	assert.Error(t, err)
}

func TestLoadProgram(t *testing.T) {
	program, err := loadProgram(&escrow.Config{})
	require.NoError(t, err)
	assert.EqualValues(t, dice.PROGRAM_ID, program.ID)

	_, err = loadProgram(&escrow.Config{IDLPath: "/nonexistent/dice.json"})
	assert.Error(t, err)

	_, err = loadProgram(&escrow.Config{ProgramID: "abc"})
	assert.Error(t, err)
}

func TestPrintUserPool(t *testing.T) {
	var out bytes.Buffer
	printUserPool(&out, nil)
	assert.Equal(t, "user pool not found\n", out.String())

	keys := testutil.GenerateSolanaKeys(t, 2)
	out.Reset()
	printUserPool(&out, &dice.UserPoolAccount{
		User:      keys[0],
		SolAmount: 1_500_000_000,
		Assets:    []dice.AssetBalance{{Mint: keys[1], Amount: 42}},
	})
	assert.Contains(t, out.String(), "sol amount: 1.5\n")
	assert.Contains(t, out.String(), ": 42\n")
}
