package dice

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/dice-client/pkg/solana"
)

type Operation string

const (
	OperationInitialize        Operation = "initialize"
	OperationInitSolPool       Operation = "initSolPool"
	OperationInitTokenPool     Operation = "initTokenPool"
	OperationInitUserPool      Operation = "initUserPool"
	OperationDepositUserSol    Operation = "depositUserSol"
	OperationDepositUserToken  Operation = "depositUserToken"
	OperationWithdrawUserSol   Operation = "withdrawUserSol"
	OperationWithdrawUserToken Operation = "withdrawUserToken"
)

var AllOperations = []Operation{
	OperationInitialize,
	OperationInitSolPool,
	OperationInitTokenPool,
	OperationInitUserPool,
	OperationDepositUserSol,
	OperationDepositUserToken,
	OperationWithdrawUserSol,
	OperationWithdrawUserToken,
}

// AccountSet maps idl account names to the addresses supplied for them.
type AccountSet map[string]ed25519.PublicKey

// ArgSet maps idl argument names to their values. Every argument the
// program takes is an unsigned integer.
type ArgSet map[string]uint64

// operationSpec lists what the client can supply for an operation. An idl is
// usable as long as each instruction asks for a subset of it, in any order.
type operationSpec struct {
	names    []string
	accounts []string
	args     []string
}

var (
	userSolAccounts = []string{"user", "escrowVault", "gameVault", "userPool", "systemProgram"}

	userTokenAccounts = []string{
		"user", "escrowVault", "gameVault", "userPool", "globalAuthority",
		"userTokenAccount", "vaultTokenAccount", "gameTokenAccount", "tokenMint", "tokenProgram",
	}

	depositArgs  = []string{"escrowBump", "gameBump", "bump", "exAmount", "depositAmount", "amount"}
	withdrawArgs = []string{"escrowBump", "gameBump", "bump", "exAmount", "withdrawAmount", "amount"}
)

var operations = map[Operation]operationSpec{
	OperationInitialize: {
		names:    []string{"initialize"},
		accounts: []string{"admin", "globalAuthority", "gameVault", "systemProgram", "rent"},
	},
	OperationInitSolPool: {
		names:    []string{"initSolPool"},
		accounts: []string{"admin", "gameVault", "systemProgram"},
		args:     []string{"depositAmount", "amount"},
	},
	OperationInitTokenPool: {
		names: []string{"initTokenPool"},
		accounts: []string{
			"admin", "gameVault", "adminTokenAccount", "vaultTokenAccount",
			"globalAuthority", "tokenMint", "tokenProgram",
		},
		args: []string{"tokenAmount", "amount"},
	},
	OperationInitUserPool: {
		names:    []string{"initUserPool"},
		accounts: []string{"user", "escrowVault", "userPool", "systemProgram"},
	},
	OperationDepositUserSol: {
		names:    []string{"depositUserSol"},
		accounts: userSolAccounts,
		args:     depositArgs,
	},
	OperationDepositUserToken: {
		// The deployed program misspells this one.
		names:    []string{"depositUserToken", "despositUserToken"},
		accounts: userTokenAccounts,
		args:     depositArgs,
	},
	OperationWithdrawUserSol: {
		names:    []string{"withdrawUserSol"},
		accounts: userSolAccounts,
		args:     withdrawArgs,
	},
	OperationWithdrawUserToken: {
		names:    []string{"withdrawUserToken"},
		accounts: userTokenAccounts,
		args:     withdrawArgs,
	},
}

func (s operationSpec) hasAccount(name string) bool {
	return containsName(s.accounts, name)
}

func (s operationSpec) hasArg(name string) bool {
	return containsName(s.args, name)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if normalizeName(n) == normalizeName(name) {
			return true
		}
	}
	return false
}

var unsignedMax = map[string]uint64{
	"u8":  math.MaxUint8,
	"u16": math.MaxUint16,
	"u32": math.MaxUint32,
	"u64": math.MaxUint64,
}

// BuildInstruction encodes op against the program's idl. Accounts are
// emitted in idl order with idl permissions, and arguments are borsh encoded
// in idl order after the instruction discriminator.
func (p *Program) BuildInstruction(op Operation, accounts AccountSet, args ArgSet) (solana.Instruction, error) {
	spec, ok := operations[op]
	if !ok {
		return solana.Instruction{}, errors.Wrapf(ErrUnknownInstruction, "%s", op)
	}
	ix, ok := p.idl.Instruction(spec.names...)
	if !ok {
		return solana.Instruction{}, errors.Wrapf(ErrUnknownInstruction, "%s", op)
	}

	data := bytes.NewBuffer(instructionDiscriminator(ix.Name))
	for _, arg := range ix.Args {
		value, ok := lookup(args, arg.Name)
		if !ok {
			return solana.Instruction{}, errors.Wrapf(ErrMissingInstructionData, "argument %s.%s", ix.Name, arg.Name)
		}

		encoded, err := encodeUnsigned(arg.Type.Primitive, value)
		if err != nil {
			return solana.Instruction{}, errors.Wrapf(err, "argument %s.%s", ix.Name, arg.Name)
		}
		data.Write(encoded)
	}

	metas := make([]solana.AccountMeta, 0, len(ix.Accounts))
	for _, account := range ix.Accounts {
		pub, ok := lookup(accounts, account.Name)
		if !ok || len(pub) != ed25519.PublicKeySize {
			return solana.Instruction{}, errors.Wrapf(ErrMissingInstructionData, "account %s.%s", ix.Name, account.Name)
		}

		metas = append(metas, solana.AccountMeta{
			PublicKey:  pub,
			IsSigner:   account.IsSigner,
			IsWritable: account.IsMut,
		})
	}

	return solana.NewInstruction(p.ID, data.Bytes(), metas...), nil
}

// DecodedInstruction is a dice instruction resolved back into names.
type DecodedInstruction struct {
	Operation Operation
	Name      string
	Accounts  AccountSet
	Args      ArgSet
}

// DecodeInstruction reverses BuildInstruction.
func (p *Program) DecodeInstruction(ix solana.Instruction) (*DecodedInstruction, error) {
	if !bytes.Equal(ix.Program, p.ID) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(ix.Data) < 8 {
		return nil, solana.ErrIncorrectInstruction
	}

	for _, op := range AllOperations {
		idlIx, ok := p.idl.Instruction(operations[op].names...)
		if !ok || !bytes.Equal(ix.Data[:8], instructionDiscriminator(idlIx.Name)) {
			continue
		}

		if len(ix.Accounts) != len(idlIx.Accounts) {
			return nil, errors.Wrapf(solana.ErrIncorrectInstruction, "%s expects %d accounts, got %d", idlIx.Name, len(idlIx.Accounts), len(ix.Accounts))
		}

		decoded := &DecodedInstruction{
			Operation: op,
			Name:      idlIx.Name,
			Accounts:  make(AccountSet),
			Args:      make(ArgSet),
		}
		for i, account := range idlIx.Accounts {
			decoded.Accounts[account.Name] = ix.Accounts[i].PublicKey
		}

		data := ix.Data[8:]
		for _, arg := range idlIx.Args {
			value, n, err := decodeUnsigned(arg.Type.Primitive, data)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %s.%s", idlIx.Name, arg.Name)
			}
			decoded.Args[arg.Name] = value
			data = data[n:]
		}
		if len(data) != 0 {
			return nil, errors.Wrapf(solana.ErrIncorrectInstruction, "%d trailing bytes", len(data))
		}

		return decoded, nil
	}

	return nil, errors.Wrapf(ErrUnknownInstruction, "discriminator %s", base58.Encode(ix.Data[:8]))
}

// Arg returns an argument by any of the names the program has used for it.
func (d *DecodedInstruction) Arg(names ...string) (uint64, bool) {
	for _, name := range names {
		if v, ok := lookup(d.Args, name); ok {
			return v, true
		}
	}
	return 0, false
}

func (d *DecodedInstruction) Account(name string) ed25519.PublicKey {
	pub, _ := lookup(d.Accounts, name)
	return pub
}

func lookup[V any](values map[string]V, name string) (V, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	for k, v := range values {
		if normalizeName(k) == normalizeName(name) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func encodeUnsigned(typ string, value uint64) ([]byte, error) {
	max, ok := unsignedMax[typ]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedType, typ)
	}
	if value > max {
		return nil, errors.Wrapf(ErrArgumentOutOfRange, "%d exceeds %s", value, typ)
	}

	switch typ {
	case "u8":
		return borsh.Serialize(uint8(value))
	case "u16":
		return borsh.Serialize(uint16(value))
	case "u32":
		return borsh.Serialize(uint32(value))
	default:
		return borsh.Serialize(value)
	}
}

func decodeUnsigned(typ string, data []byte) (value uint64, n int, err error) {
	size, ok := primitiveSizes[typ]
	if _, unsigned := unsignedMax[typ]; !ok || !unsigned {
		return 0, 0, errors.Wrap(ErrUnsupportedType, typ)
	}
	if len(data) < size {
		return 0, 0, ErrMissingInstructionData
	}

	switch typ {
	case "u8":
		var v uint8
		err = borsh.Deserialize(&v, data[:size])
		value = uint64(v)
	case "u16":
		var v uint16
		err = borsh.Deserialize(&v, data[:size])
		value = uint64(v)
	case "u32":
		var v uint32
		err = borsh.Deserialize(&v, data[:size])
		value = uint64(v)
	default:
		err = borsh.Deserialize(&value, data[:size])
	}
	return value, size, err
}
