package escrow

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/token"
)

// AccountResolver works out which associated token accounts an operation
// needs to create before the program instruction can run.
type AccountResolver struct {
	log        *logrus.Entry
	ledger     Ledger
	commitment solana.Commitment
}

func NewAccountResolver(ledger Ledger, commitment solana.Commitment) *AccountResolver {
	return &AccountResolver{
		log:        logrus.StandardLogger().WithField("type", "escrow/resolver"),
		ledger:     ledger,
		commitment: commitment,
	}
}

// Resolve returns, per mint and in mint order, the creation instructions for
// the custody account and then the wallet account, skipping any that exist.
// Creations are paid for by wallet. The custody addresses are returned
// whether or not they needed creating.
func (r *AccountResolver) Resolve(ctx context.Context, wallet, custody ed25519.PublicKey, mints ...ed25519.PublicKey) ([]solana.Instruction, []ed25519.PublicKey, error) {
	var (
		ixns     []solana.Instruction
		accounts = make([]ed25519.PublicKey, 0, len(mints))
	)

	for _, mint := range mints {
		ix, address, err := r.ensure(ctx, wallet, custody, mint)
		if err != nil {
			return nil, nil, err
		}
		if ix != nil {
			ixns = append(ixns, *ix)
		}
		accounts = append(accounts, address)

		if bytes.Equal(wallet, custody) {
			continue
		}

		ix, _, err = r.ensure(ctx, wallet, wallet, mint)
		if err != nil {
			return nil, nil, err
		}
		if ix != nil {
			ixns = append(ixns, *ix)
		}
	}

	return ixns, accounts, nil
}

func (r *AccountResolver) ensure(ctx context.Context, payer, owner, mint ed25519.PublicKey) (*solana.Instruction, ed25519.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ix, address, err := token.CreateAssociatedTokenAccount(payer, owner, mint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive associated account")
	}

	_, err = token.NewClient(r.ledger, mint).GetAccount(address, r.commitment)
	switch {
	case err == nil:
		return nil, address, nil
	case errors.Is(err, token.ErrAccountNotFound):
		r.log.WithFields(logrus.Fields{
			"method":  "Resolve",
			"owner":   base58.Encode(owner),
			"mint":    base58.Encode(mint),
			"account": base58.Encode(address),
		}).Debug("associated account missing, will create")
		return &ix, address, nil
	case errors.Is(err, token.ErrInvalidTokenAccount):
		return nil, nil, errors.Wrapf(err, "associated account %s is unusable", base58.Encode(address))
	default:
		return nil, nil, errors.Wrapf(err, "failed to look up associated account %s", base58.Encode(address))
	}
}
