package memory

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/system"
	"github.com/code-payments/dice-client/pkg/solana/token"
)

// Account is the stored state of a single address.
type Account struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

func (a *Account) clone() *Account {
	return &Account{
		Owner:      append(ed25519.PublicKey{}, a.Owner...),
		Lamports:   a.Lamports,
		Data:       append([]byte{}, a.Data...),
		Executable: a.Executable,
	}
}

// ProgramHandler executes one instruction of a program against the
// transaction's staged state. Returned errors should be a solana.CustomError
// or an error named by a solana.InstructionErrorKey.
type ProgramHandler func(state *State, ix solana.Instruction) error

// Ledger is an in-memory stand-in for a Solana cluster. It executes the
// system program's create-with-seed, associated token account creation and
// any registered program handlers, atomically per transaction.
type Ledger struct {
	log *logrus.Entry

	mu        sync.Mutex
	accounts  map[string]*Account
	programs  map[string]ProgramHandler
	blockhash solana.Blockhash
	statuses  map[solana.Signature]error
	submitted []solana.Transaction

	preflight  bool
	submitErr  error
	confirmErr error
}

// New returns an empty Ledger that simulates transactions before accepting
// them, the way an RPC node does with preflight enabled.
func New() *Ledger {
	l := &Ledger{
		log:       logrus.StandardLogger().WithField("type", "solana/memory"),
		accounts:  make(map[string]*Account),
		programs:  make(map[string]ProgramHandler),
		statuses:  make(map[solana.Signature]error),
		preflight: true,
	}
	l.blockhash = sha256.Sum256([]byte("genesis"))
	return l
}

// RentExemption is the rent-exempt minimum used by the ledger.
func RentExemption(size uint64) uint64 {
	// 3480 lamports per byte-year, two years, plus the 128 byte account overhead.
	return (size + 128) * 3480 * 2
}

func (l *Ledger) RegisterProgram(program ed25519.PublicKey, handler ProgramHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.programs[string(program)] = handler
}

// SetPreflight controls whether failing transactions are rejected at
// submission (true) or accepted and reported as failed on confirmation.
func (l *Ledger) SetPreflight(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.preflight = enabled
}

// SetSubmitError makes every submission fail with err. Nil clears it.
func (l *Ledger) SetSubmitError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submitErr = err
}

// SetConfirmError makes every confirmation fail with err. Nil clears it.
func (l *Ledger) SetConfirmError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.confirmErr = err
}

// AdvanceBlockhash rotates the recent blockhash.
func (l *Ledger) AdvanceBlockhash() solana.Blockhash {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.blockhash = sha256.Sum256(l.blockhash[:])
	return l.blockhash
}

func (l *Ledger) SetAccount(address ed25519.PublicKey, account *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = account.clone()
}

// Account returns a copy of the stored account.
func (l *Ledger) Account(address ed25519.PublicKey) (*Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[string(address)]
	if !ok {
		return nil, false
	}
	return account.clone(), true
}

// Fund credits lamports to a system owned account, creating it if needed.
func (l *Ledger) Fund(address ed25519.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[string(address)]
	if !ok {
		account = &Account{Owner: system.ProgramKey[:]}
		l.accounts[string(address)] = account
	}
	account.Lamports += lamports
}

func (l *Ledger) AddMint(mint ed25519.PublicKey, decimals uint8) {
	m := token.Mint{
		Decimals:      decimals,
		IsInitialized: true,
	}
	l.SetAccount(mint, &Account{
		Owner:    token.ProgramKey,
		Lamports: RentExemption(token.MintSize),
		Data:     m.Marshal(),
	})
}

// AddTokenAccount creates the associated token account of owner for mint.
func (l *Ledger) AddTokenAccount(owner, mint ed25519.PublicKey, amount uint64) (ed25519.PublicKey, error) {
	address, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	a := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	l.SetAccount(address, &Account{
		Owner:    token.ProgramKey,
		Lamports: RentExemption(token.AccountSize),
		Data:     a.Marshal(),
	})
	return address, nil
}

// Transactions returns every transaction accepted for execution.
func (l *Ledger) Transactions() []solana.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]solana.Transaction{}, l.submitted...)
}

func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	account, ok := l.Account(address)
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return solana.AccountInfo{
		Data:       account.Data,
		Owner:      account.Owner,
		Lamports:   account.Lamports,
		Executable: account.Executable,
	}, nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return RentExemption(size), nil
}

func (l *Ledger) GetLatestBlockhash(_ solana.Commitment) (solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.blockhash, nil
}

// SubmitTransaction executes txn. With preflight enabled a failing
// transaction is rejected with its *solana.TransactionError and leaves no
// trace; otherwise it is recorded as failed.
func (l *Ledger) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sig := txn.Signature()
	log := l.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	})

	if l.submitErr != nil {
		return sig, l.submitErr
	}

	if err := txn.Verify(); err != nil {
		log.WithError(err).Debug("signature verification failed")
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if txn.Message.RecentBlockhash != l.blockhash {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := l.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
	}

	state := &State{ledger: l, staged: make(map[string]*Account)}
	txErr := l.execute(state, txn)
	if txErr != nil {
		log.WithError(txErr).Debug("transaction failed")
		if l.preflight {
			return sig, txErr
		}
	} else {
		for address, account := range state.staged {
			if account == nil {
				delete(l.accounts, address)
				continue
			}
			l.accounts[address] = account
		}
	}

	l.submitted = append(l.submitted, txn)
	if txErr != nil {
		l.statuses[sig] = txErr
	} else {
		l.statuses[sig] = nil
	}

	return sig, nil
}

func (l *Ledger) ConfirmTransaction(sig solana.Signature, _ solana.Commitment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.confirmErr != nil {
		return l.confirmErr
	}

	status, ok := l.statuses[sig]
	if !ok {
		return errors.Wrap(solana.ErrTransactionNotConfirmed, "signature never observed")
	}
	return status
}

func (l *Ledger) execute(state *State, txn solana.Transaction) *solana.TransactionError {
	for i, compiled := range txn.Message.Instructions {
		var err error

		program := txn.Message.Accounts[compiled.ProgramIndex]
		switch {
		case bytes.Equal(program, system.ProgramKey[:]):
			err = state.createAccountWithSeed(txn.Message, i)
		case bytes.Equal(program, token.AssociatedTokenAccountProgramKey):
			err = state.createAssociatedAccount(txn.Message, i)
		default:
			handler, ok := l.programs[string(program)]
			if !ok {
				err = errors.New(string(solana.InstructionErrorIncorrectProgramID))
				break
			}
			err = handler(state, txn.Message.Decompile(compiled))
		}

		if err == nil {
			continue
		}

		cause := errors.Cause(err)
		if _, ok := cause.(solana.CustomError); !ok {
			cause = errors.New(cause.Error())
		}

		txErr, convErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{
			Index: i,
			Err:   cause,
		})
		if convErr != nil {
			return solana.NewTransactionError(solana.TransactionErrorInternal)
		}
		return txErr
	}

	return nil
}

// State is the view of the ledger a transaction executes against. Writes are
// staged and only applied if every instruction succeeds.
type State struct {
	ledger *Ledger
	staged map[string]*Account
}

// Account returns a copy of the account as seen by the transaction so far.
func (s *State) Account(address ed25519.PublicKey) (*Account, bool) {
	if account, ok := s.staged[string(address)]; ok {
		if account == nil {
			return nil, false
		}
		return account.clone(), true
	}

	account, ok := s.ledger.accounts[string(address)]
	if !ok {
		return nil, false
	}
	return account.clone(), true
}

func (s *State) Put(address ed25519.PublicKey, account *Account) {
	s.staged[string(address)] = account.clone()
}

func (s *State) Delete(address ed25519.PublicKey) {
	s.staged[string(address)] = nil
}

// Transfer moves lamports between two accounts, creating the destination as
// a system account when it does not exist yet.
func (s *State) Transfer(from, to ed25519.PublicKey, lamports uint64) error {
	source, ok := s.Account(from)
	if !ok || source.Lamports < lamports {
		return errors.New(string(solana.InstructionErrorInsufficientFunds))
	}

	source.Lamports -= lamports
	s.Put(from, source)

	dest, ok := s.Account(to)
	if !ok {
		dest = &Account{Owner: system.ProgramKey[:]}
	}
	dest.Lamports += lamports
	s.Put(to, dest)

	return nil
}

// TokenAccount decodes the token account at address.
func (s *State) TokenAccount(address ed25519.PublicKey) (*token.Account, bool) {
	account, ok := s.Account(address)
	if !ok || !bytes.Equal(account.Owner, token.ProgramKey) {
		return nil, false
	}

	var decoded token.Account
	if !decoded.Unmarshal(account.Data) {
		return nil, false
	}
	return &decoded, true
}

// TransferTokens moves token base units between two token accounts of the
// same mint.
func (s *State) TransferTokens(from, to ed25519.PublicKey, amount uint64) error {
	source, ok := s.TokenAccount(from)
	if !ok {
		return errors.New(string(solana.InstructionErrorUninitializedAccount))
	}
	dest, ok := s.TokenAccount(to)
	if !ok {
		return errors.New(string(solana.InstructionErrorUninitializedAccount))
	}
	if !bytes.Equal(source.Mint, dest.Mint) {
		return errors.New(string(solana.InstructionErrorInvalidAccountData))
	}
	if source.Amount < amount {
		return errors.New(string(solana.InstructionErrorInsufficientFunds))
	}

	source.Amount -= amount
	dest.Amount += amount
	s.putTokenAccount(from, source)
	s.putTokenAccount(to, dest)
	return nil
}

func (s *State) putTokenAccount(address ed25519.PublicKey, decoded *token.Account) {
	account, _ := s.Account(address)
	account.Data = decoded.Marshal()
	s.Put(address, account)
}

// Rent returns the rent-exempt minimum for size bytes.
func (s *State) Rent(size uint64) uint64 {
	return RentExemption(size)
}

func (s *State) createAccountWithSeed(m solana.Message, index int) error {
	ix, err := system.DecompileCreateAccountWithSeed(m, index)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	expected, err := solana.CreateWithSeed(ix.Base, ix.Seed, ix.Owner)
	if err != nil || !bytes.Equal(expected, ix.Address) {
		return errors.New(string(solana.InstructionErrorInvalidSeeds))
	}

	// System program error 0 is AccountAlreadyInUse.
	if _, ok := s.Account(ix.Address); ok {
		return solana.CustomError(0)
	}

	if err := s.Transfer(ix.Funder, ix.Address, ix.Lamports); err != nil {
		// System program error 1 is ResultWithNegativeLamports.
		return solana.CustomError(1)
	}

	s.Put(ix.Address, &Account{
		Owner:    ix.Owner,
		Lamports: ix.Lamports,
		Data:     make([]byte, ix.Size),
	})
	return nil
}

func (s *State) createAssociatedAccount(m solana.Message, index int) error {
	ix, err := token.DecompileCreateAssociatedAccount(m, index)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	expected, err := token.GetAssociatedAccount(ix.Owner, ix.Mint)
	if err != nil || !bytes.Equal(expected, ix.Address) {
		return errors.New(string(solana.InstructionErrorInvalidSeeds))
	}

	if _, ok := s.Account(ix.Address); ok {
		return solana.CustomError(0)
	}

	mint, ok := s.Account(ix.Mint)
	if !ok || !bytes.Equal(mint.Owner, token.ProgramKey) || len(mint.Data) != token.MintSize {
		return errors.New(string(solana.InstructionErrorInvalidAccountData))
	}

	lamports := RentExemption(token.AccountSize)
	if err := s.Transfer(ix.Subsidizer, ix.Address, lamports); err != nil {
		return solana.CustomError(1)
	}

	created := token.Account{
		Mint:  ix.Mint,
		Owner: ix.Owner,
		State: token.AccountStateInitialized,
	}
	s.Put(ix.Address, &Account{
		Owner:    token.ProgramKey,
		Lamports: lamports,
		Data:     created.Marshal(),
	})
	return nil
}
