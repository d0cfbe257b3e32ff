package escrow

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/dice"
)

var (
	ErrStateNotFound  = errors.New("state account not found")
	ErrStateMalformed = errors.New("state account malformed")
)

type unmarshaler interface {
	Unmarshal(data []byte) error
}

// StateReader fetches and decodes the program's records.
type StateReader struct {
	log        *logrus.Entry
	ledger     Ledger
	program    *dice.Program
	commitment solana.Commitment
}

func NewStateReader(ledger Ledger, program *dice.Program, commitment solana.Commitment) *StateReader {
	return &StateReader{
		log:        logrus.StandardLogger().WithField("type", "escrow/state"),
		ledger:     ledger,
		program:    program,
		commitment: commitment,
	}
}

func (r *StateReader) FetchGlobalPool(ctx context.Context) (*dice.GlobalPoolAccount, error) {
	address, _, err := r.program.GetGlobalAuthorityAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive global authority")
	}

	var pool dice.GlobalPoolAccount
	if err := r.fetch(ctx, address, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *StateReader) FetchUserPool(ctx context.Context, user ed25519.PublicKey) (*dice.UserPoolAccount, error) {
	address, err := r.program.GetUserPoolAddress(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive user pool")
	}

	var pool dice.UserPoolAccount
	if err := r.fetch(ctx, address, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *StateReader) fetch(ctx context.Context, address ed25519.PublicKey, dst unmarshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := r.ledger.GetAccountInfo(address, r.commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return errors.Wrap(ErrStateNotFound, base58.Encode(address))
	} else if err != nil {
		return errors.Wrapf(err, "failed to get account %s", base58.Encode(address))
	}

	if !bytes.Equal(info.Owner, r.program.ID) {
		return errors.Wrapf(ErrStateMalformed, "%s is owned by %s", base58.Encode(address), base58.Encode(info.Owner))
	}
	if err := dst.Unmarshal(info.Data); err != nil {
		return errors.Wrapf(ErrStateMalformed, "%s: %v", base58.Encode(address), err)
	}
	return nil
}
