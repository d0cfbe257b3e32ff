package memory

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/token"
)

type parsedTokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       uint64  `json:"decimals"`
	UIAmount       float64 `json:"uiAmount"`
	UIAmountString string  `json:"uiAmountString"`
}

type parsedTokenAccount struct {
	Mint        string            `json:"mint"`
	Owner       string            `json:"owner"`
	State       string            `json:"state"`
	IsNative    bool              `json:"isNative"`
	TokenAmount parsedTokenAmount `json:"tokenAmount"`
}

type parsedMint struct {
	Decimals      uint8  `json:"decimals"`
	IsInitialized bool   `json:"isInitialized"`
	Supply        string `json:"supply"`
}

// GetParsedAccountInfo renders token accounts and mints the way an RPC
// node's jsonParsed encoding does. Other accounts have no parsed view.
func (l *Ledger) GetParsedAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.ParsedAccountInfo, error) {
	account, ok := l.Account(address)
	if !ok {
		return solana.ParsedAccountInfo{}, solana.ErrNoAccountInfo
	}

	info := solana.ParsedAccountInfo{
		Owner:    account.Owner,
		Lamports: account.Lamports,
	}
	if !bytes.Equal(account.Owner, token.ProgramKey) {
		return info, nil
	}

	var (
		parsed interface{}
		err    error
	)
	switch len(account.Data) {
	case token.AccountSize:
		info.Type = "account"
		parsed, err = l.parseTokenAccount(account.Data)
	case token.MintSize:
		var m token.Mint
		if !m.Unmarshal(account.Data) {
			return info, nil
		}
		info.Type = "mint"
		parsed = parsedMint{
			Decimals:      m.Decimals,
			IsInitialized: m.IsInitialized,
			Supply:        strconv.FormatUint(m.Supply, 10),
		}
	default:
		return info, nil
	}
	if err != nil {
		return info, err
	}

	info.Program = "spl-token"
	info.Info, err = json.Marshal(parsed)
	if err != nil {
		return info, errors.Wrap(err, "failed to render parsed account")
	}
	return info, nil
}

func (l *Ledger) parseTokenAccount(data []byte) (*parsedTokenAccount, error) {
	var a token.Account
	if !a.Unmarshal(data) {
		return nil, errors.New("invalid token account data")
	}

	mintAccount, ok := l.Account(a.Mint)
	if !ok {
		return nil, errors.Errorf("mint %s not found", base58.Encode(a.Mint))
	}
	var m token.Mint
	if !m.Unmarshal(mintAccount.Data) {
		return nil, errors.Errorf("invalid mint %s", base58.Encode(a.Mint))
	}

	ui := decimal.NewFromBigInt(new(big.Int).SetUint64(a.Amount), -int32(m.Decimals))
	uiFloat, _ := ui.Float64()

	state := "initialized"
	if a.State == token.AccountStateFrozen {
		state = "frozen"
	}

	return &parsedTokenAccount{
		Mint:     base58.Encode(a.Mint),
		Owner:    base58.Encode(a.Owner),
		State:    state,
		IsNative: a.IsNative != nil,
		TokenAmount: parsedTokenAmount{
			Amount:         strconv.FormatUint(a.Amount, 10),
			Decimals:       uint64(m.Decimals),
			UIAmount:       uiFloat,
			UIAmountString: ui.String(),
		},
	}, nil
}
