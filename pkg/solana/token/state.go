package token

import (
	"crypto/ed25519"

	"github.com/code-payments/dice-client/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Sizes of the spl-token Account and Mint layouts.
const (
	AccountSize = 165
	MintSize    = 82
)

// Account is an spl-token account.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64
	// Delegate may spend up to DelegatedAmount when set.
	Delegate ed25519.PublicKey
	State    AccountState
	// IsNative holds the rent-exempt reserve of a wrapped SOL account.
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	w := binary.NewWriter(AccountSize)
	w.Key(a.Mint)
	w.Key(a.Owner)
	w.Uint64(a.Amount)
	w.OptionalKey(a.Delegate)
	w.Uint8(byte(a.State))
	w.OptionalUint64(a.IsNative)
	w.Uint64(a.DelegatedAmount)
	w.OptionalKey(a.CloseAuthority)
	return w.Bytes()
}

func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	r := binary.NewReader(b)
	a.Mint = r.Key()
	a.Owner = r.Key()
	a.Amount = r.Uint64()
	a.Delegate = r.OptionalKey()
	a.State = AccountState(r.Uint8())
	a.IsNative = r.OptionalUint64()
	a.DelegatedAmount = r.Uint64()
	a.CloseAuthority = r.OptionalKey()
	return true
}

// Mint is the on-chain state of a token mint.
type Mint struct {
	MintAuthority   ed25519.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	w := binary.NewWriter(MintSize)
	w.OptionalKey(m.MintAuthority)
	w.Uint64(m.Supply)
	w.Uint8(m.Decimals)
	w.Bool(m.IsInitialized)
	w.OptionalKey(m.FreezeAuthority)
	return w.Bytes()
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize {
		return false
	}

	r := binary.NewReader(b)
	m.MintAuthority = r.OptionalKey()
	m.Supply = r.Uint64()
	m.Decimals = r.Uint8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = r.OptionalKey()
	return true
}
