package escrow

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/dice"
	"github.com/code-payments/dice-client/pkg/solana/memory"
	"github.com/code-payments/dice-client/pkg/testutil"
)

const (
	errNotRegisteredToken = solana.CustomError(6000)
	errExceedAmount       = solana.CustomError(6001)
)

// diceSimulator executes dice instructions against an in-memory ledger with
// the same account effects as the deployed program.
type diceSimulator struct {
	program *dice.Program
}

func (d *diceSimulator) handle(state *memory.State, ix solana.Instruction) error {
	decoded, err := d.program.DecodeInstruction(ix)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}
	if len(ix.Accounts) == 0 || !ix.Accounts[0].IsSigner {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}

	switch decoded.Operation {
	case dice.OperationInitialize:
		return d.initialize(state, decoded)
	case dice.OperationInitSolPool:
		amount, _ := decoded.Arg("depositAmount", "amount")
		return state.Transfer(decoded.Account("admin"), decoded.Account("gameVault"), amount)
	case dice.OperationInitTokenPool:
		return d.initTokenPool(state, decoded)
	case dice.OperationInitUserPool:
		return d.initUserPool(state, decoded)
	case dice.OperationDepositUserSol:
		return d.transferSol(state, decoded, true)
	case dice.OperationWithdrawUserSol:
		return d.transferSol(state, decoded, false)
	case dice.OperationDepositUserToken:
		return d.transferToken(state, decoded, true)
	case dice.OperationWithdrawUserToken:
		return d.transferToken(state, decoded, false)
	}
	return errors.New(string(solana.InstructionErrorInvalidInstructionData))
}

func (d *diceSimulator) initialize(state *memory.State, ix *dice.DecodedInstruction) error {
	global := ix.Account("globalAuthority")
	expected, _, err := d.program.GetGlobalAuthorityAddress()
	if err != nil || !bytes.Equal(expected, global) {
		return errors.New(string(solana.InstructionErrorInvalidSeeds))
	}
	if _, ok := state.Account(global); ok {
		return errors.New(string(solana.InstructionErrorAccountAlreadyInitialized))
	}

	data, err := dice.MarshalGlobalPool(ix.Account("admin"), nil)
	if err != nil {
		return err
	}
	return d.allocate(state, ix.Account("admin"), global, data)
}

func (d *diceSimulator) initTokenPool(state *memory.State, ix *dice.DecodedInstruction) error {
	global, err := d.globalPool(state, ix.Account("globalAuthority"))
	if err != nil {
		return err
	}

	vault, ok := state.TokenAccount(ix.Account("vaultTokenAccount"))
	if !ok || !bytes.Equal(vault.Owner, ix.Account("gameVault")) {
		return errors.New(string(solana.InstructionErrorInvalidAccountData))
	}

	amount, _ := ix.Arg("tokenAmount", "amount")
	if err := state.TransferTokens(ix.Account("adminTokenAccount"), ix.Account("vaultTokenAccount"), amount); err != nil {
		return err
	}

	mint := ix.Account("tokenMint")
	if global.IndexOf(mint) >= 0 {
		return nil
	}
	data, err := dice.MarshalGlobalPool(global.Admin, append(global.TokenAddresses, mint))
	if err != nil {
		return err
	}
	return d.write(state, ix.Account("globalAuthority"), data)
}

func (d *diceSimulator) initUserPool(state *memory.State, ix *dice.DecodedInstruction) error {
	address := ix.Account("userPool")
	account, ok := state.Account(address)
	if !ok || !bytes.Equal(account.Owner, d.program.ID) || len(account.Data) != dice.UserPoolAccountSize {
		return errors.New(string(solana.InstructionErrorUninitializedAccount))
	}
	if !bytes.Equal(account.Data[:8], make([]byte, 8)) {
		return errors.New(string(solana.InstructionErrorAccountAlreadyInitialized))
	}

	data, err := dice.MarshalUserPool(ix.Account("user"), 0, nil)
	if err != nil {
		return err
	}
	return d.write(state, address, data)
}

func (d *diceSimulator) transferSol(state *memory.State, ix *dice.DecodedInstruction, deposit bool) error {
	user := ix.Account("user")
	escrowVault := ix.Account("escrowVault")
	if err := d.checkEscrow(ix, user, escrowVault); err != nil {
		return err
	}

	pool, slots, err := d.userPool(state, ix.Account("userPool"), nil)
	if err != nil {
		return err
	}

	ex, _ := ix.Arg("exAmount")
	amount, _ := ix.Arg("depositAmount", "withdrawAmount", "amount")

	var solAmount uint64
	if deposit {
		if err := state.Transfer(user, escrowVault, amount); err != nil {
			return err
		}
		solAmount = ex + amount
	} else {
		if amount > ex {
			return errExceedAmount
		}
		if err := state.Transfer(escrowVault, user, amount); err != nil {
			return err
		}
		solAmount = ex - amount
	}

	data, err := dice.MarshalUserPool(pool.User, solAmount, slots)
	if err != nil {
		return err
	}
	return d.write(state, ix.Account("userPool"), data)
}

func (d *diceSimulator) transferToken(state *memory.State, ix *dice.DecodedInstruction, deposit bool) error {
	user := ix.Account("user")
	if err := d.checkEscrow(ix, user, ix.Account("escrowVault")); err != nil {
		return err
	}

	global, err := d.globalPool(state, ix.Account("globalAuthority"))
	if err != nil {
		return err
	}
	mint := ix.Account("tokenMint")
	index := global.IndexOf(mint)
	if index < 0 {
		return errNotRegisteredToken
	}

	pool, slots, err := d.userPool(state, ix.Account("userPool"), global)
	if err != nil {
		return err
	}

	ex, _ := ix.Arg("exAmount")
	amount, _ := ix.Arg("depositAmount", "withdrawAmount", "amount")

	var balance uint64
	if deposit {
		if err := state.TransferTokens(ix.Account("userTokenAccount"), ix.Account("vaultTokenAccount"), amount); err != nil {
			return err
		}
		balance = ex + amount
	} else {
		if amount > ex {
			return errExceedAmount
		}
		if err := state.TransferTokens(ix.Account("vaultTokenAccount"), ix.Account("userTokenAccount"), amount); err != nil {
			return err
		}
		balance = ex - amount
	}
	slots[index] = dice.AssetBalance{Mint: mint, Amount: balance}

	data, err := dice.MarshalUserPool(pool.User, pool.SolAmount, slots)
	if err != nil {
		return err
	}
	return d.write(state, ix.Account("userPool"), data)
}

func (d *diceSimulator) checkEscrow(ix *dice.DecodedInstruction, user, escrowVault ed25519.PublicKey) error {
	expected, bump, err := d.program.GetEscrowVaultAddress(user)
	if err != nil || !bytes.Equal(expected, escrowVault) {
		return errors.New(string(solana.InstructionErrorInvalidSeeds))
	}
	if given, ok := ix.Arg("escrowBump", "bump"); ok && given != uint64(bump) {
		return errors.New(string(solana.InstructionErrorInvalidSeeds))
	}
	return nil
}

func (d *diceSimulator) globalPool(state *memory.State, address ed25519.PublicKey) (*dice.GlobalPoolAccount, error) {
	account, ok := state.Account(address)
	if !ok || !bytes.Equal(account.Owner, d.program.ID) {
		return nil, errors.New(string(solana.InstructionErrorUninitializedAccount))
	}

	var pool dice.GlobalPoolAccount
	if err := pool.Unmarshal(account.Data); err != nil {
		return nil, errors.New(string(solana.InstructionErrorInvalidAccountData))
	}
	return &pool, nil
}

// userPool decodes a pool record along with the registry slot of each asset.
func (d *diceSimulator) userPool(state *memory.State, address ed25519.PublicKey, global *dice.GlobalPoolAccount) (*dice.UserPoolAccount, map[int]dice.AssetBalance, error) {
	account, ok := state.Account(address)
	if !ok || !bytes.Equal(account.Owner, d.program.ID) {
		return nil, nil, errors.New(string(solana.InstructionErrorUninitializedAccount))
	}

	var pool dice.UserPoolAccount
	if err := pool.Unmarshal(account.Data); err != nil {
		return nil, nil, errors.New(string(solana.InstructionErrorInvalidAccountData))
	}

	slots := make(map[int]dice.AssetBalance)
	for i, asset := range pool.Assets {
		slot := i
		if global != nil {
			if registered := global.IndexOf(asset.Mint); registered >= 0 {
				slot = registered
			}
		}
		slots[slot] = asset
	}
	return &pool, slots, nil
}

func (d *diceSimulator) allocate(state *memory.State, payer, address ed25519.PublicKey, data []byte) error {
	if err := state.Transfer(payer, address, state.Rent(uint64(len(data)))); err != nil {
		return err
	}
	return d.write(state, address, data)
}

func (d *diceSimulator) write(state *memory.State, address ed25519.PublicKey, data []byte) error {
	account, ok := state.Account(address)
	if !ok {
		return errors.New(string(solana.InstructionErrorUninitializedAccount))
	}
	account.Owner = d.program.ID
	account.Data = data
	state.Put(address, account)
	return nil
}

type testEnv struct {
	ledger  *memory.Ledger
	program *dice.Program
	service *Service
}

func setup(t *testing.T) *testEnv {
	program, err := dice.NewDefaultProgram()
	require.NoError(t, err)

	ledger := memory.New()
	ledger.RegisterProgram(program.ID, (&diceSimulator{program: program}).handle)

	return &testEnv{
		ledger:  ledger,
		program: program,
		service: NewService(ledger, program),
	}
}

// newFundedSigner returns a signer holding 10 SOL.
func (e *testEnv) newFundedSigner(t *testing.T) *solana.KeypairSigner {
	signer := testutil.NewSigner(t)
	e.ledger.Fund(signer.PublicKey(), 10*LamportsPerSol)
	return signer
}

func humanAmount(t *testing.T, value string) decimal.Decimal {
	parsed, err := ParseAmount(value)
	require.NoError(t, err)
	return parsed
}
