package dice

import (
	"crypto/ed25519"

	"github.com/code-payments/dice-client/pkg/solana"
)

type InitializeInstructionAccounts struct {
	Admin           ed25519.PublicKey
	GlobalAuthority ed25519.PublicKey
	GameVault       ed25519.PublicKey
}

func (p *Program) NewInitializeInstruction(accounts *InitializeInstructionAccounts) (solana.Instruction, error) {
	return p.BuildInstruction(
		OperationInitialize,
		AccountSet{
			"admin":           accounts.Admin,
			"globalAuthority": accounts.GlobalAuthority,
			"gameVault":       accounts.GameVault,
			"systemProgram":   SYSTEM_PROGRAM_ID,
			"rent":            SYSVAR_RENT_PUBKEY,
		},
		nil,
	)
}

type InitSolPoolInstructionAccounts struct {
	Admin     ed25519.PublicKey
	GameVault ed25519.PublicKey
}

type InitSolPoolInstructionArgs struct {
	DepositAmount uint64
}

func (p *Program) NewInitSolPoolInstruction(
	accounts *InitSolPoolInstructionAccounts,
	args *InitSolPoolInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(
		OperationInitSolPool,
		AccountSet{
			"admin":         accounts.Admin,
			"gameVault":     accounts.GameVault,
			"systemProgram": SYSTEM_PROGRAM_ID,
		},
		ArgSet{
			"depositAmount": args.DepositAmount,
			"amount":        args.DepositAmount,
		},
	)
}

type InitTokenPoolInstructionAccounts struct {
	Admin             ed25519.PublicKey
	GameVault         ed25519.PublicKey
	AdminTokenAccount ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey
	GlobalAuthority   ed25519.PublicKey
	TokenMint         ed25519.PublicKey
}

type InitTokenPoolInstructionArgs struct {
	TokenAmount uint64
}

func (p *Program) NewInitTokenPoolInstruction(
	accounts *InitTokenPoolInstructionAccounts,
	args *InitTokenPoolInstructionArgs,
) (solana.Instruction, error) {
	return p.BuildInstruction(
		OperationInitTokenPool,
		AccountSet{
			"admin":             accounts.Admin,
			"gameVault":         accounts.GameVault,
			"adminTokenAccount": accounts.AdminTokenAccount,
			"vaultTokenAccount": accounts.VaultTokenAccount,
			"globalAuthority":   accounts.GlobalAuthority,
			"tokenMint":         accounts.TokenMint,
			"tokenProgram":      SPL_TOKEN_PROGRAM_ID,
		},
		ArgSet{
			"tokenAmount": args.TokenAmount,
			"amount":      args.TokenAmount,
		},
	)
}
