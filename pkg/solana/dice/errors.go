package dice

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/dice-client/pkg/solana"
)

// ProgramError is a custom error raised by the dice program, named by the idl.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("dice error %d (%s): %s", e.Code, e.Name, e.Msg)
}

// ProgramError extracts the program's custom error from a failed
// transaction, when the failure was raised by the program itself.
func (p *Program) ProgramError(err error) (*ProgramError, bool) {
	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) || txErr.InstructionError() == nil {
		return nil, false
	}

	custom := txErr.InstructionError().CustomError()
	if custom == nil || *custom < 0 {
		return nil, false
	}

	code := uint32(*custom)
	if named, ok := p.idl.ErrorByCode(code); ok {
		return &ProgramError{Code: code, Name: named.Name, Msg: named.Msg}, true
	}
	return &ProgramError{Code: code, Name: "Unknown"}, true
}
