package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/dice-client/pkg/solana"
)

var ProgramKey [32]byte

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
const (
	// nolint:varcheck,deadcode,unused
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	// nolint:varcheck,deadcode,unused
	commandTransfer
	commandCreateAccountWithSeed
)

// CreateAccountWithSeed returns an instruction that creates and funds the
// account at solana.CreateWithSeed(base, seed, owner).
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L82-L99
func CreateAccountWithSeed(funder, address, base ed25519.PublicKey, seed string, lamports, size uint64, owner ed25519.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Created account
	//   2. [SIGNER] (optional) Base account, if it differs from the funder
	//
	// CreateAccountWithSeed {
	//   base: Pubkey,
	//   seed: String,
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, 4+32+8+len(seed)+8+8+32)

	var offset int
	binary.LittleEndian.PutUint32(data[offset:], commandCreateAccountWithSeed)
	offset += 4
	offset += copy(data[offset:], base)
	binary.LittleEndian.PutUint64(data[offset:], uint64(len(seed)))
	offset += 8
	offset += copy(data[offset:], seed)
	binary.LittleEndian.PutUint64(data[offset:], lamports)
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], size)
	offset += 8
	copy(data[offset:], owner)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
	}
	if !bytes.Equal(base, funder) {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(base, true))
	}

	return solana.NewInstruction(ProgramKey[:], data, accounts...)
}

type DecompiledCreateAccountWithSeed struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey
	Base    ed25519.PublicKey

	Seed     string
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccountWithSeed(m solana.Message, index int) (*DecompiledCreateAccountWithSeed, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], commandCreateAccountWithSeed)
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 2 && len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	const fixedSize = 4 + 32 + 8 + 8 + 8 + 32
	if len(i.Data) < fixedSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	offset := 4
	base := make(ed25519.PublicKey, ed25519.PublicKeySize)
	offset += copy(base, i.Data[offset:])

	seedLen := binary.LittleEndian.Uint64(i.Data[offset:])
	offset += 8
	if uint64(len(i.Data)) != fixedSize+seedLen {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	seed := string(i.Data[offset : offset+int(seedLen)])
	offset += int(seedLen)

	v := &DecompiledCreateAccountWithSeed{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
		Base:    base,
		Seed:    seed,
	}
	v.Lamports = binary.LittleEndian.Uint64(i.Data[offset:])
	offset += 8
	v.Size = binary.LittleEndian.Uint64(i.Data[offset:])
	offset += 8
	v.Owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(v.Owner, i.Data[offset:])

	if len(i.Accounts) == 3 && !bytes.Equal(m.Accounts[i.Accounts[2]], base) {
		return nil, errors.New("base account does not match instruction data")
	}

	return v, nil
}
