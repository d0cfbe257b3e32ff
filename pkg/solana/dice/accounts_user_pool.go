package dice

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

const UserPoolAccountName = "UserPool"

const (
	UserPoolAccountSize = (8 + // discriminator
		32 + // user_address
		MaxTokens*32 + // token_address
		MaxTokens*8 + // token_amount
		8) // sol_amount
)

var UserPoolAccountDiscriminator = accountDiscriminator(UserPoolAccountName)

type AssetBalance struct {
	Mint   ed25519.PublicKey
	Amount uint64
}

// UserPoolAccount is a user's escrowed balances. Assets are kept in slot
// order with empty slots dropped.
type UserPoolAccount struct {
	User      ed25519.PublicKey
	Assets    []AssetBalance
	SolAmount uint64
}

type rawUserPool struct {
	UserAddress  [32]byte
	TokenAddress [MaxTokens][32]byte
	TokenAmount  [MaxTokens]uint64
	SolAmount    uint64
}

func (obj *UserPoolAccount) Unmarshal(data []byte) (err error) {
	if len(data) < UserPoolAccountSize {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(data[:8], UserPoolAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInvalidAccountData, "user pool: %v", r)
		}
	}()

	var raw rawUserPool
	if err := borsh.Deserialize(&raw, data[8:UserPoolAccountSize]); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}

	obj.User = copyKey(raw.UserAddress)
	obj.SolAmount = raw.SolAmount
	obj.Assets = nil
	for i := 0; i < MaxTokens; i++ {
		if raw.TokenAddress[i] == ([32]byte{}) {
			continue
		}
		obj.Assets = append(obj.Assets, AssetBalance{
			Mint:   copyKey(raw.TokenAddress[i]),
			Amount: raw.TokenAmount[i],
		})
	}

	return nil
}

func (obj *UserPoolAccount) TokenAddresses() []ed25519.PublicKey {
	addresses := make([]ed25519.PublicKey, len(obj.Assets))
	for i, asset := range obj.Assets {
		addresses[i] = asset.Mint
	}
	return addresses
}

func (obj *UserPoolAccount) TokenAmounts() []uint64 {
	amounts := make([]uint64, len(obj.Assets))
	for i, asset := range obj.Assets {
		amounts[i] = asset.Amount
	}
	return amounts
}

// Balance returns the recorded amount of mint, or 0 when the user holds none.
func (obj *UserPoolAccount) Balance(mint ed25519.PublicKey) uint64 {
	for _, asset := range obj.Assets {
		if bytes.Equal(asset.Mint, mint) {
			return asset.Amount
		}
	}
	return 0
}

func (obj *UserPoolAccount) Holds(mint ed25519.PublicKey) bool {
	for _, asset := range obj.Assets {
		if bytes.Equal(asset.Mint, mint) {
			return true
		}
	}
	return false
}

func (obj *UserPoolAccount) String() string {
	assets := make([]string, len(obj.Assets))
	for i, asset := range obj.Assets {
		assets[i] = fmt.Sprintf("%s:%d", base58.Encode(asset.Mint), asset.Amount)
	}

	return fmt.Sprintf(
		"UserPool{user=%s,sol_amount=%d,assets=[%s]}",
		base58.Encode(obj.User),
		obj.SolAmount,
		strings.Join(assets, ","),
	)
}

// MarshalUserPool encodes a pool record in its on-chain layout. Assets are
// written to the given slots, which must be below MaxTokens.
func MarshalUserPool(user ed25519.PublicKey, solAmount uint64, slots map[int]AssetBalance) ([]byte, error) {
	var raw rawUserPool
	copy(raw.UserAddress[:], user)
	raw.SolAmount = solAmount
	for slot, asset := range slots {
		if slot < 0 || slot >= MaxTokens {
			return nil, errors.Errorf("slot %d out of range", slot)
		}
		copy(raw.TokenAddress[slot][:], asset.Mint)
		raw.TokenAmount[slot] = asset.Amount
	}

	encoded, err := borsh.Serialize(raw)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, UserPoolAccountDiscriminator...), encoded...), nil
}

// MarshalGlobalPool encodes a registry record in its on-chain layout.
func MarshalGlobalPool(admin ed25519.PublicKey, mints []ed25519.PublicKey) ([]byte, error) {
	if len(mints) > MaxTokens {
		return nil, errors.Errorf("%d tokens exceeds %d", len(mints), MaxTokens)
	}

	var raw rawGlobalPool
	copy(raw.Admin[:], admin)
	for i, mint := range mints {
		copy(raw.TokenAddress[i][:], mint)
	}
	raw.TokenCount = uint64(len(mints))

	encoded, err := borsh.Serialize(raw)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, GlobalPoolAccountDiscriminator...), encoded...), nil
}
