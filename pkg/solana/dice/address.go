package dice

import (
	"crypto/ed25519"

	"github.com/code-payments/dice-client/pkg/solana"
)

var (
	GlobalAuthorityPrefix = []byte("global-authority")
	GameVaultPrefix       = []byte("game-vault")
	EscrowVaultPrefix     = []byte("escrow-vault")
)

// UserPoolSeed is the create-with-seed seed of a user's pool record. The
// record is not a program address, so it can be allocated by the user with a
// plain system instruction before the program initializes it.
const UserPoolSeed = "user-pool"

func (p *Program) GetGlobalAuthorityAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		p.ID,
		GlobalAuthorityPrefix,
	)
}

func (p *Program) GetGameVaultAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		p.ID,
		GameVaultPrefix,
	)
}

func (p *Program) GetEscrowVaultAddress(user ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		p.ID,
		user,
		EscrowVaultPrefix,
	)
}

func (p *Program) GetUserPoolAddress(user ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.CreateWithSeed(user, UserPoolSeed, p.ID)
}
