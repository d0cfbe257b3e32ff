package dice

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/solana"
)

func TestProgramError(t *testing.T) {
	program, err := NewDefaultProgram()
	require.NoError(t, err)

	txErr, err := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 2,
		Err:   solana.CustomError(6000),
	})
	require.NoError(t, err)

	named, ok := program.ProgramError(errors.Wrap(txErr, "submit"))
	require.True(t, ok)
	assert.EqualValues(t, 6000, named.Code)
	assert.Equal(t, "NotRegisteredToken", named.Name)
	assert.Contains(t, named.Error(), "NotRegisteredToken")

	txErr, err = solana.TransactionErrorFromInstructionError(&solana.InstructionError{
		Index: 0,
		Err:   solana.CustomError(6100),
	})
	require.NoError(t, err)
	named, ok = program.ProgramError(txErr)
	require.True(t, ok)
	assert.Equal(t, "Unknown", named.Name)

	_, ok = program.ProgramError(solana.NewTransactionError(solana.TransactionErrorAccountNotFound))
	assert.False(t, ok)

	_, ok = program.ProgramError(errors.New("boom"))
	assert.False(t, ok)
}
