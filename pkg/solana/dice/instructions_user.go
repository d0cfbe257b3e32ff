package dice

import (
	"crypto/ed25519"

	"github.com/code-payments/dice-client/pkg/solana"
)

type InitUserPoolInstructionAccounts struct {
	User        ed25519.PublicKey
	EscrowVault ed25519.PublicKey
	UserPool    ed25519.PublicKey
}

func (p *Program) NewInitUserPoolInstruction(accounts *InitUserPoolInstructionAccounts) (solana.Instruction, error) {
	return p.BuildInstruction(
		OperationInitUserPool,
		AccountSet{
			"user":          accounts.User,
			"escrowVault":   accounts.EscrowVault,
			"userPool":      accounts.UserPool,
			"systemProgram": SYSTEM_PROGRAM_ID,
		},
		nil,
	)
}

// UserSolInstructionAccounts are shared by native deposits and withdrawals.
type UserSolInstructionAccounts struct {
	User        ed25519.PublicKey
	EscrowVault ed25519.PublicKey
	GameVault   ed25519.PublicKey
	UserPool    ed25519.PublicKey
}

// UserTokenInstructionAccounts are shared by asset deposits and withdrawals.
type UserTokenInstructionAccounts struct {
	User              ed25519.PublicKey
	EscrowVault       ed25519.PublicKey
	GameVault         ed25519.PublicKey
	UserPool          ed25519.PublicKey
	GlobalAuthority   ed25519.PublicKey
	UserTokenAccount  ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey
	GameTokenAccount  ed25519.PublicKey
	TokenMint         ed25519.PublicKey
}

// TransferInstructionArgs carry the previously recorded balance (ExAmount)
// and the amount moved, both in base units.
type TransferInstructionArgs struct {
	EscrowBump uint8
	GameBump   uint8
	ExAmount   uint64
	Amount     uint64
}

func (p *Program) NewDepositUserSolInstruction(
	accounts *UserSolInstructionAccounts,
	args *TransferInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(OperationDepositUserSol, accounts.accountSet(), args.argSet("depositAmount"))
}

func (p *Program) NewWithdrawUserSolInstruction(
	accounts *UserSolInstructionAccounts,
	args *TransferInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(OperationWithdrawUserSol, accounts.accountSet(), args.argSet("withdrawAmount"))
}

func (p *Program) NewDepositUserTokenInstruction(
	accounts *UserTokenInstructionAccounts,
	args *TransferInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(OperationDepositUserToken, accounts.accountSet(), args.argSet("depositAmount"))
}

func (p *Program) NewWithdrawUserTokenInstruction(
	accounts *UserTokenInstructionAccounts,
	args *TransferInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(OperationWithdrawUserToken, accounts.accountSet(), args.argSet("withdrawAmount"))
}

func (a *UserSolInstructionAccounts) accountSet() AccountSet {
	return AccountSet{
		"user":          a.User,
		"escrowVault":   a.EscrowVault,
		"gameVault":     a.GameVault,
		"userPool":      a.UserPool,
		"systemProgram": SYSTEM_PROGRAM_ID,
	}
}

func (a *UserTokenInstructionAccounts) accountSet() AccountSet {
	return AccountSet{
		"user":              a.User,
		"escrowVault":       a.EscrowVault,
		"gameVault":         a.GameVault,
		"userPool":          a.UserPool,
		"globalAuthority":   a.GlobalAuthority,
		"userTokenAccount":  a.UserTokenAccount,
		"vaultTokenAccount": a.VaultTokenAccount,
		"gameTokenAccount":  a.GameTokenAccount,
		"tokenMint":         a.TokenMint,
		"tokenProgram":      SPL_TOKEN_PROGRAM_ID,
	}
}

func (a *TransferInstructionArgs) argSet(amountName string) ArgSet {
	return ArgSet{
		"escrowBump": uint64(a.EscrowBump),
		"gameBump":   uint64(a.GameBump),
		// The deployed withdraw instructions take the escrow bump as "bump".
		"bump":     uint64(a.EscrowBump),
		"exAmount": a.ExAmount,
		amountName: a.Amount,
		"amount":   a.Amount,
	}
}
