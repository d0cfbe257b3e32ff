package escrow

import (
	"crypto/ed25519"

	"github.com/code-payments/dice-client/pkg/solana"
)

// Ledger is the part of the Solana RPC surface the escrow pipeline uses.
type Ledger interface {
	GetAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.AccountInfo, error)
	GetParsedAccountInfo(ed25519.PublicKey, solana.Commitment) (solana.ParsedAccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
	GetLatestBlockhash(solana.Commitment) (solana.Blockhash, error)
	SubmitTransaction(solana.Transaction, solana.Commitment) (solana.Signature, error)
	ConfirmTransaction(solana.Signature, solana.Commitment) error
}

var _ Ledger = solana.Client(nil)
