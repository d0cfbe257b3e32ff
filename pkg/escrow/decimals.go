package escrow

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/token"
)

// maxDecimals keeps 10^decimals inside a u64.
const maxDecimals = 19

// DecimalResolver finds the base-unit exponent of a token mint.
type DecimalResolver struct {
	log        *logrus.Entry
	ledger     Ledger
	commitment solana.Commitment
}

func NewDecimalResolver(ledger Ledger, commitment solana.Commitment) *DecimalResolver {
	return &DecimalResolver{
		log:        logrus.StandardLogger().WithField("type", "escrow/decimals"),
		ledger:     ledger,
		commitment: commitment,
	}
}

// ResolveDecimals returns 10^decimals for mint. The owner's associated token
// account is consulted first, then the mint itself. The second return value
// is false when neither lookup yields a usable answer.
func (r *DecimalResolver) ResolveDecimals(ctx context.Context, owner, mint ed25519.PublicKey) (uint64, bool) {
	log := r.log.WithFields(logrus.Fields{
		"method": "ResolveDecimals",
		"owner":  base58.Encode(owner),
		"mint":   base58.Encode(mint),
	})

	if ctx.Err() != nil {
		return 0, false
	}

	decimals, err := r.fromTokenAccount(owner, mint)
	if err != nil {
		log.WithError(err).Debug("associated account unusable, falling back to mint")

		if ctx.Err() != nil {
			return 0, false
		}

		decimals, err = r.fromMint(mint)
		if err != nil {
			log.WithError(err).Debug("decimals unavailable")
			return 0, false
		}
	}

	if decimals > maxDecimals {
		log.WithField("decimals", decimals).Warn("decimals out of range")
		return 0, false
	}

	exp := uint64(1)
	for i := uint64(0); i < decimals; i++ {
		exp *= 10
	}
	return exp, true
}

func (r *DecimalResolver) fromTokenAccount(owner, mint ed25519.PublicKey) (uint64, error) {
	ata, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return 0, err
	}

	info, err := r.ledger.GetParsedAccountInfo(ata, r.commitment)
	if err != nil {
		return 0, err
	}
	if info.Type != "account" || len(info.Info) == 0 {
		return 0, errors.Errorf("%s is not a parsed token account", base58.Encode(ata))
	}

	var parsed struct {
		TokenAmount *solana.TokenAmount `json:"tokenAmount"`
	}
	if err := json.Unmarshal(info.Info, &parsed); err != nil {
		return 0, errors.Wrap(err, "invalid parsed token account")
	}
	if parsed.TokenAmount == nil {
		return 0, errors.New("parsed token account has no token amount")
	}
	return parsed.TokenAmount.Decimals, nil
}

func (r *DecimalResolver) fromMint(mint ed25519.PublicKey) (uint64, error) {
	info, err := r.ledger.GetAccountInfo(mint, r.commitment)
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(info.Owner, token.ProgramKey) {
		return 0, errors.Errorf("%s is not owned by the token program", base58.Encode(mint))
	}

	decoded, err := sdktoken.MintAccountFromData(info.Data)
	if err != nil {
		return 0, errors.Wrap(err, "invalid mint account")
	}
	if !decoded.IsInitialized {
		return 0, errors.New("mint is not initialized")
	}
	return uint64(decoded.Decimals), nil
}
