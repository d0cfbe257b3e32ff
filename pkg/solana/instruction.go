package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"sort"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account referenced by an instruction, along with the
// permissions the instruction needs on it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

// mergeAccountMetas collapses repeated keys into one entry holding the union
// of their permissions. First-seen order is kept.
func mergeAccountMetas(accounts []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(accounts))
	seen := make(map[string]int, len(accounts))

	for _, account := range accounts {
		i, ok := seen[string(account.PublicKey)]
		if !ok {
			seen[string(account.PublicKey)] = len(merged)
			merged = append(merged, account)
			continue
		}

		merged[i].IsSigner = merged[i].IsSigner || account.IsSigner
		merged[i].IsWritable = merged[i].IsWritable || account.IsWritable
		merged[i].isPayer = merged[i].isPayer || account.isPayer
	}

	return merged
}

// sortAccountMetas puts accounts in message order: the fee payer, then
// signers, then writable accounts, with invoked programs at the end. Ties
// are broken by key so the result is deterministic.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func sortAccountMetas(accounts []AccountMeta) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		switch {
		case a.isPayer != b.isPayer:
			return a.isPayer
		case a.isProgram != b.isProgram:
			return b.isProgram
		case a.IsSigner != b.IsSigner:
			return a.IsSigner
		case a.IsWritable != b.IsWritable:
			return a.IsWritable
		}
		return bytes.Compare(a.PublicKey, b.PublicKey) < 0
	})
}

// Instruction is a single program invocation.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an Instruction with its program and accounts
// replaced by indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
