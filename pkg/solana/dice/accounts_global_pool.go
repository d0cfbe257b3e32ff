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

// MaxTokens is the number of asset slots in both pool records.
const MaxTokens = 20

const GlobalPoolAccountName = "GlobalPool"

const (
	GlobalPoolAccountSize = (8 + // discriminator
		32 + // admin
		MaxTokens*32 + // token_address
		8) // token_count
)

var GlobalPoolAccountDiscriminator = accountDiscriminator(GlobalPoolAccountName)

// GlobalPoolAccount is the program's registry of accepted assets.
type GlobalPoolAccount struct {
	Admin          ed25519.PublicKey
	TokenAddresses []ed25519.PublicKey
	TokenCount     uint64
}

type rawGlobalPool struct {
	Admin        [32]byte
	TokenAddress [MaxTokens][32]byte
	TokenCount   uint64
}

func (obj *GlobalPoolAccount) Unmarshal(data []byte) (err error) {
	if len(data) < GlobalPoolAccountSize {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(data[:8], GlobalPoolAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInvalidAccountData, "global pool: %v", r)
		}
	}()

	var raw rawGlobalPool
	if err := borsh.Deserialize(&raw, data[8:GlobalPoolAccountSize]); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	if raw.TokenCount > MaxTokens {
		return errors.Wrapf(ErrInvalidAccountData, "token count %d exceeds %d", raw.TokenCount, MaxTokens)
	}

	obj.Admin = copyKey(raw.Admin)
	obj.TokenCount = raw.TokenCount
	obj.TokenAddresses = make([]ed25519.PublicKey, 0, raw.TokenCount)
	for i := uint64(0); i < raw.TokenCount; i++ {
		obj.TokenAddresses = append(obj.TokenAddresses, copyKey(raw.TokenAddress[i]))
	}

	return nil
}

// IndexOf returns the registry slot of mint, or -1.
func (obj *GlobalPoolAccount) IndexOf(mint ed25519.PublicKey) int {
	for i, address := range obj.TokenAddresses {
		if bytes.Equal(address, mint) {
			return i
		}
	}
	return -1
}

func (obj *GlobalPoolAccount) String() string {
	tokens := make([]string, len(obj.TokenAddresses))
	for i, address := range obj.TokenAddresses {
		tokens[i] = base58.Encode(address)
	}

	return fmt.Sprintf(
		"GlobalPool{admin=%s,token_count=%d,token_address=[%s]}",
		base58.Encode(obj.Admin),
		obj.TokenCount,
		strings.Join(tokens, ","),
	)
}

func copyKey(raw [32]byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, raw[:])
	return key
}
