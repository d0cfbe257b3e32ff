package escrow

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/memory"
	"github.com/code-payments/dice-client/pkg/testutil"
)

func TestAssembler_Order(t *testing.T) {
	ledger := memory.New()
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	ledger.RegisterProgram(program, func(*memory.State, solana.Instruction) error { return nil })

	signer := testutil.NewSigner(t)
	plan := Plan{
		AccountCreations: []solana.Instruction{
			solana.NewInstruction(program, []byte{1}),
			solana.NewInstruction(program, []byte{2}),
		},
		AuxiliaryCreations: []solana.Instruction{
			solana.NewInstruction(program, []byte{3}),
		},
		Program: solana.NewInstruction(program, []byte{4}, solana.NewAccountMeta(signer.PublicKey(), true)),
	}

	sig, err := NewAssembler(ledger).Submit(context.Background(), signer, plan)
	require.NoError(t, err)

	txns := ledger.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, sig, txns[0].Signature())
	assert.EqualValues(t, signer.PublicKey(), txns[0].Message.Accounts[0])
	require.Len(t, txns[0].Message.Instructions, 4)
	for i, ix := range txns[0].Message.Instructions {
		assert.Equal(t, []byte{byte(i + 1)}, ix.Data)
	}
	assert.NoError(t, txns[0].Verify())
}

func TestAssembler_Errors(t *testing.T) {
	ctx := context.Background()
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	plan := Plan{Program: solana.NewInstruction(program, []byte{1})}

	ledger := memory.New()
	ledger.RegisterProgram(program, func(*memory.State, solana.Instruction) error {
		return solana.CustomError(6003)
	})
	assembler := NewAssembler(ledger)
	signer := testutil.NewSigner(t)

	_, err := assembler.Submit(ctx, signer, Plan{})
	assert.ErrorIs(t, err, ErrNoProgramInstruction)

	_, err = assembler.Submit(ctx, &failingSigner{Signer: signer}, plan)
	assert.ErrorIs(t, err, ErrSigningFailed)

	_, err = assembler.Submit(ctx, signer, plan)
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	require.NotNil(t, txErr.InstructionError().CustomError())
	assert.EqualValues(t, 6003, *txErr.InstructionError().CustomError())

	ledger.SetPreflight(false)
	_, err = assembler.Submit(ctx, signer, plan)
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.NotErrorIs(t, err, ErrConfirmationTimeout)

	ledger.SetSubmitError(errors.New("connection reset"))
	_, err = assembler.Submit(ctx, signer, plan)
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAssembler_Timeout(t *testing.T) {
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	ledger := memory.New()
	ledger.RegisterProgram(program, func(*memory.State, solana.Instruction) error { return nil })
	ledger.SetConfirmError(errors.Wrap(solana.ErrTransactionNotConfirmed, "poll limit"))

	sig, err := NewAssembler(ledger).Submit(context.Background(), testutil.NewSigner(t), Plan{
		Program: solana.NewInstruction(program, []byte{1}),
	})
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.ErrorIs(t, err, solana.ErrTransactionNotConfirmed)
	assert.NotEqual(t, solana.Signature{}, sig)
}

func TestAssembler_Oversized(t *testing.T) {
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	ledger := memory.New()
	ledger.RegisterProgram(program, func(*memory.State, solana.Instruction) error { return nil })

	_, err := NewAssembler(ledger).Submit(context.Background(), testutil.NewSigner(t), Plan{
		Program: solana.NewInstruction(program, make([]byte, solana.MaxTransactionSize)),
	})
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.ErrorIs(t, err, solana.ErrTooLarge)
	assert.Empty(t, ledger.Transactions())
}

type failingSigner struct {
	solana.Signer
}

func (s *failingSigner) Sign(*solana.Transaction) error {
	return errors.New("hardware wallet locked")
}
