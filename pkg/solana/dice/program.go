package dice

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrUnknownInstruction     = errors.New("instruction not found in idl")
	ErrUnknownAccount         = errors.New("idl references an account the client cannot supply")
	ErrUnknownArgument        = errors.New("idl references an argument the client cannot supply")
	ErrUnsupportedType        = errors.New("unsupported idl type")
	ErrIdlMismatch            = errors.New("idl layout does not match the client")
	ErrArgumentOutOfRange     = errors.New("argument does not fit its idl type")
	ErrMissingInstructionData = errors.New("missing instruction account or argument")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("77WPfiSfVcYHZQKNUZH6wbB6v1dXieX4upy2UuTMGSj2")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID    = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
	SPL_TOKEN_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))

	SYSVAR_RENT_PUBKEY = ed25519.PublicKey(mustBase58Decode("SysvarRent111111111111111111111111111111111"))
)

// Program is a deployment of the dice escrow program together with the
// interface description its instructions are encoded against.
type Program struct {
	ID  ed25519.PublicKey
	idl *IDL
}

// NewProgram validates idl against the operations and account layouts this
// package knows how to build and decode.
func NewProgram(id ed25519.PublicKey, idl *IDL) (*Program, error) {
	if len(id) != ed25519.PublicKeySize {
		return nil, ErrInvalidProgram
	}
	if idl == nil {
		return nil, errors.New("idl is required")
	}
	if err := idl.validate(); err != nil {
		return nil, err
	}

	return &Program{
		ID:  id,
		idl: idl,
	}, nil
}

// NewDefaultProgram returns the program at PROGRAM_ID using the embedded idl.
func NewDefaultProgram() (*Program, error) {
	idl, err := DefaultIDL()
	if err != nil {
		return nil, err
	}
	return NewProgram(PROGRAM_ID, idl)
}

func (p *Program) IDL() *IDL {
	return p.idl
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
