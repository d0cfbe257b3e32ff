package escrow

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/solana"
)

var (
	ErrNoProgramInstruction = errors.New("plan has no program instruction")
	ErrSigningFailed        = errors.New("failed to sign transaction")
	ErrSubmissionRejected   = errors.New("transaction rejected")
	ErrConfirmationTimeout  = errors.New("transaction not confirmed in time")
	ErrTransactionFailed    = errors.New("transaction failed")
)

// Plan is the instruction set of one operation. Account creations come
// first, then auxiliary creations, then the single program instruction.
type Plan struct {
	AccountCreations   []solana.Instruction
	AuxiliaryCreations []solana.Instruction
	Program            solana.Instruction
}

func (p Plan) Instructions() []solana.Instruction {
	ixns := make([]solana.Instruction, 0, len(p.AccountCreations)+len(p.AuxiliaryCreations)+1)
	ixns = append(ixns, p.AccountCreations...)
	ixns = append(ixns, p.AuxiliaryCreations...)
	return append(ixns, p.Program)
}

// SubmitError classifies a failed submission while keeping the ledger's
// reason reachable through errors.As.
type SubmitError struct {
	Kind   error
	Reason error
}

func (e *SubmitError) Error() string {
	return e.Kind.Error() + ": " + e.Reason.Error()
}

func (e *SubmitError) Is(target error) bool {
	return target == e.Kind
}

func (e *SubmitError) Unwrap() error {
	return e.Reason
}

// Assembler turns a Plan into one signed transaction and submits it.
type Assembler struct {
	log    *logrus.Entry
	ledger Ledger
}

func NewAssembler(ledger Ledger) *Assembler {
	return &Assembler{
		log:    logrus.StandardLogger().WithField("type", "escrow/assembler"),
		ledger: ledger,
	}
}

// Submit signs plan with signer as the fee payer, submits it once and waits
// for confirmation. The signature is returned alongside confirmation errors
// so the caller can follow up on the transaction.
func (a *Assembler) Submit(ctx context.Context, signer solana.Signer, plan Plan) (solana.Signature, error) {
	if len(plan.Program.Program) == 0 {
		return solana.Signature{}, ErrNoProgramInstruction
	}
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	log := a.log.WithFields(logrus.Fields{
		"method":       "Submit",
		"instructions": len(plan.AccountCreations) + len(plan.AuxiliaryCreations) + 1,
	})

	blockhash, err := a.ledger.GetLatestBlockhash(solana.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to get recent blockhash")
	}

	txn := solana.NewTransaction(signer.PublicKey(), plan.Instructions()...)
	txn.SetBlockhash(blockhash)
	if err := signer.Sign(&txn); err != nil {
		return solana.Signature{}, &SubmitError{Kind: ErrSigningFailed, Reason: err}
	}

	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		reason := errors.Wrapf(solana.ErrTooLarge, "%d bytes", size)
		return solana.Signature{}, &SubmitError{Kind: ErrSubmissionRejected, Reason: reason}
	}

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	sig, err := a.ledger.SubmitTransaction(txn, solana.CommitmentConfirmed)
	log = log.WithField("signature", sig.String())
	if err != nil {
		log.WithError(err).Info("transaction rejected")
		return sig, &SubmitError{Kind: ErrSubmissionRejected, Reason: err}
	}

	err = a.ledger.ConfirmTransaction(sig, solana.CommitmentConfirmed)
	if err == nil {
		log.Debug("transaction confirmed")
		return sig, nil
	}

	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		log.WithError(err).Info("transaction failed")
		return sig, &SubmitError{Kind: ErrTransactionFailed, Reason: err}
	}

	log.WithError(err).Warn("transaction outcome unknown")
	return sig, &SubmitError{Kind: ErrConfirmationTimeout, Reason: err}
}
