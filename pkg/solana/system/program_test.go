package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/solana"
)

func TestCreateAccountWithSeed(t *testing.T) {
	keys := generateKeys(t, 2)
	funder, owner := keys[0], keys[1]

	address, err := solana.CreateWithSeed(funder, "user-pool", owner)
	require.NoError(t, err)

	instruction := CreateAccountWithSeed(funder, address, funder, "user-pool", 12345, 848, owner)

	require.Len(t, instruction.Accounts, 2)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	assert.EqualValues(t, commandCreateAccountWithSeed, binary.LittleEndian.Uint32(instruction.Data))
	assert.Equal(t, []byte(funder), instruction.Data[4:36])
	assert.EqualValues(t, 9, binary.LittleEndian.Uint64(instruction.Data[36:44]))
	assert.Equal(t, "user-pool", string(instruction.Data[44:53]))
	assert.EqualValues(t, 12345, binary.LittleEndian.Uint64(instruction.Data[53:61]))
	assert.EqualValues(t, 848, binary.LittleEndian.Uint64(instruction.Data[61:69]))
	assert.Equal(t, []byte(owner), instruction.Data[69:101])
	assert.Len(t, instruction.Data, 101)

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewTransaction(funder, instruction).Marshal()))

	decompiled, err := DecompileCreateAccountWithSeed(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, funder, decompiled.Funder)
	assert.EqualValues(t, address, decompiled.Address)
	assert.EqualValues(t, funder, decompiled.Base)
	assert.EqualValues(t, owner, decompiled.Owner)
	assert.Equal(t, "user-pool", decompiled.Seed)
	assert.EqualValues(t, 12345, decompiled.Lamports)
	assert.EqualValues(t, 848, decompiled.Size)
}

func TestCreateAccountWithSeed_SeparateBase(t *testing.T) {
	keys := generateKeys(t, 3)
	funder, base, owner := keys[0], keys[1], keys[2]

	address, err := solana.CreateWithSeed(base, "seed", owner)
	require.NoError(t, err)

	instruction := CreateAccountWithSeed(funder, address, base, "seed", 1, 2, owner)
	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	tx := solana.NewTransaction(funder, instruction)
	decompiled, err := DecompileCreateAccountWithSeed(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, base, decompiled.Base)
	assert.EqualValues(t, address, decompiled.Address)
}

func TestDecompileNonCreateWithSeed(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccountWithSeed(keys[0], keys[1], keys[0], "seed", 12345, 67890, keys[2])

	_, err := DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 1)
	assert.Error(t, err)

	truncated := instruction
	truncated.Accounts = instruction.Accounts[:1]
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], truncated).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	wrongCommand := instruction
	wrongCommand.Data = append([]byte{}, instruction.Data...)
	binary.LittleEndian.PutUint32(wrongCommand.Data, commandTransfer)
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], wrongCommand).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	short := instruction
	short.Data = instruction.Data[:50]
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], short).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid instruction data size"), err)

	wrongProgram := instruction
	wrongProgram.Program = keys[2]
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], wrongProgram).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}
