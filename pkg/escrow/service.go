package escrow

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/dice-client/pkg/metrics"
	"github.com/code-payments/dice-client/pkg/metrics/noop"
	"github.com/code-payments/dice-client/pkg/solana"
	"github.com/code-payments/dice-client/pkg/solana/dice"
	"github.com/code-payments/dice-client/pkg/solana/system"
	"github.com/code-payments/dice-client/pkg/solana/token"
)

const (
	metricsStructName = "escrow.service"

	operationEventName   = "DiceOperation"
	submitDurationMetric = "Dice/Submit/Duration"
	operationCountMetric = "Dice/Operation/"
)

var (
	ErrDecimalsUnavailable = errors.New("token decimals unavailable")
	ErrUserPoolFull        = errors.New("user pool holds the maximum number of assets")
)

type options struct {
	commitment solana.Commitment
	metrics    metrics.Provider
}

type Option func(*options)

// WithCommitment sets the commitment used for reads. Submission always
// confirms at solana.CommitmentConfirmed.
func WithCommitment(commitment solana.Commitment) Option {
	return func(o *options) {
		o.commitment = commitment
	}
}

func WithMetricsProvider(provider metrics.Provider) Option {
	return func(o *options) {
		o.metrics = provider
	}
}

// Service runs the escrow operations of the dice program. Each mutating
// operation derives its addresses, provisions missing token accounts and
// submits exactly one transaction signed by the acting user or admin.
type Service struct {
	log     *logrus.Entry
	program *dice.Program
	ledger  Ledger
	metrics metrics.Provider

	decimals  *DecimalResolver
	resolver  *AccountResolver
	assembler *Assembler
	state     *StateReader
}

func NewService(ledger Ledger, program *dice.Program, opts ...Option) *Service {
	o := &options{
		commitment: solana.CommitmentConfirmed,
		metrics:    noop.NewProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Service{
		log:       logrus.StandardLogger().WithField("type", "escrow/service"),
		program:   program,
		ledger:    ledger,
		metrics:   o.metrics,
		decimals:  NewDecimalResolver(ledger, o.commitment),
		resolver:  NewAccountResolver(ledger, o.commitment),
		assembler: NewAssembler(ledger),
		state:     NewStateReader(ledger, program, o.commitment),
	}
}

func (s *Service) Program() *dice.Program {
	return s.program
}

// InitProject creates the global registry and the game vault.
func (s *Service) InitProject(ctx context.Context, admin solana.Signer) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "InitProject")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("InitProject", admin.PublicKey())

	globalAuthority, _, err := s.program.GetGlobalAuthorityAddress()
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive global authority")
	}
	gameVault, _, err := s.program.GetGameVaultAddress()
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive game vault")
	}

	ix, err := s.program.NewInitializeInstruction(&dice.InitializeInstructionAccounts{
		Admin:           admin.PublicKey(),
		GlobalAuthority: globalAuthority,
		GameVault:       gameVault,
	})
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "InitProject", admin, Plan{Program: ix})
}

// InitNativePool funds the game vault with amount SOL.
func (s *Service) InitNativePool(ctx context.Context, admin solana.Signer, amount decimal.Decimal) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "InitNativePool")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("InitNativePool", admin.PublicKey()).WithField("amount", amount.String())

	lamports, err := ToBaseUnits(amount, LamportsPerSol)
	if err != nil {
		return sig, err
	}

	gameVault, _, err := s.program.GetGameVaultAddress()
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive game vault")
	}

	ix, err := s.program.NewInitSolPoolInstruction(
		&dice.InitSolPoolInstructionAccounts{
			Admin:     admin.PublicKey(),
			GameVault: gameVault,
		},
		&dice.InitSolPoolInstructionArgs{
			DepositAmount: lamports,
		},
	)
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "InitNativePool", admin, Plan{Program: ix})
}

// InitAssetPool registers mint with the program and moves amount of it from
// the admin into the game vault.
func (s *Service) InitAssetPool(ctx context.Context, admin solana.Signer, mint ed25519.PublicKey, amount decimal.Decimal) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "InitAssetPool")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("InitAssetPool", admin.PublicKey()).WithFields(logrus.Fields{
		"mint":   base58.Encode(mint),
		"amount": amount.String(),
	})

	globalAuthority, _, err := s.program.GetGlobalAuthorityAddress()
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive global authority")
	}
	gameVault, _, err := s.program.GetGameVaultAddress()
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive game vault")
	}

	exp, ok := s.decimals.ResolveDecimals(ctx, admin.PublicKey(), mint)
	if !ok {
		if err := ctx.Err(); err != nil {
			return sig, err
		}
		return sig, errors.Wrap(ErrDecimalsUnavailable, base58.Encode(mint))
	}
	units, err := ToBaseUnits(amount, exp)
	if err != nil {
		return sig, err
	}

	adminTokenAccount, err := token.GetAssociatedAccount(admin.PublicKey(), mint)
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive admin token account")
	}
	creations, custody, err := s.resolver.Resolve(ctx, admin.PublicKey(), gameVault, mint)
	if err != nil {
		return sig, err
	}

	ix, err := s.program.NewInitTokenPoolInstruction(
		&dice.InitTokenPoolInstructionAccounts{
			Admin:             admin.PublicKey(),
			GameVault:         gameVault,
			AdminTokenAccount: adminTokenAccount,
			VaultTokenAccount: custody[0],
			GlobalAuthority:   globalAuthority,
			TokenMint:         mint,
		},
		&dice.InitTokenPoolInstructionArgs{
			TokenAmount: units,
		},
	)
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "InitAssetPool", admin, Plan{AccountCreations: creations, Program: ix})
}

// InitUserRecord allocates the user's pool record and has the program
// initialize it, in one transaction.
func (s *Service) InitUserRecord(ctx context.Context, user solana.Signer) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "InitUserRecord")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("InitUserRecord", user.PublicKey())

	escrowVault, _, err := s.program.GetEscrowVaultAddress(user.PublicKey())
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive escrow vault")
	}
	userPool, err := s.program.GetUserPoolAddress(user.PublicKey())
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive user pool")
	}

	if err := ctx.Err(); err != nil {
		return sig, err
	}
	rent, err := s.ledger.GetMinimumBalanceForRentExemption(dice.UserPoolAccountSize)
	if err != nil {
		return sig, errors.Wrap(err, "failed to get rent exemption")
	}

	create := system.CreateAccountWithSeed(
		user.PublicKey(),
		userPool,
		user.PublicKey(),
		dice.UserPoolSeed,
		rent,
		dice.UserPoolAccountSize,
		s.program.ID,
	)

	ix, err := s.program.NewInitUserPoolInstruction(&dice.InitUserPoolInstructionAccounts{
		User:        user.PublicKey(),
		EscrowVault: escrowVault,
		UserPool:    userPool,
	})
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "InitUserRecord", user, Plan{
		AccountCreations: []solana.Instruction{create},
		Program:          ix,
	})
}

// DepositNative moves amount SOL into the user's escrow. ex is the balance
// the user's record held before the deposit.
func (s *Service) DepositNative(ctx context.Context, user solana.Signer, ex, amount decimal.Decimal) (solana.Signature, error) {
	return s.transferNative(ctx, "DepositNative", user, ex, amount, s.program.NewDepositUserSolInstruction)
}

// WithdrawNative moves amount SOL out of the user's escrow.
func (s *Service) WithdrawNative(ctx context.Context, user solana.Signer, ex, amount decimal.Decimal) (solana.Signature, error) {
	return s.transferNative(ctx, "WithdrawNative", user, ex, amount, s.program.NewWithdrawUserSolInstruction)
}

type nativeInstructionBuilder func(*dice.UserSolInstructionAccounts, *dice.TransferInstructionArgs) (solana.Instruction, error)

func (s *Service) transferNative(
	ctx context.Context,
	method string,
	user solana.Signer,
	ex, amount decimal.Decimal,
	build nativeInstructionBuilder,
) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, method)
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog(method, user.PublicKey()).WithFields(logrus.Fields{
		"ex_amount": ex.String(),
		"amount":    amount.String(),
	})

	exLamports, err := ToBaseUnits(ex, LamportsPerSol)
	if err != nil {
		return sig, errors.Wrap(err, "invalid ex amount")
	}
	lamports, err := ToBaseUnits(amount, LamportsPerSol)
	if err != nil {
		return sig, err
	}

	addresses, err := s.userAddresses(user.PublicKey())
	if err != nil {
		return sig, err
	}

	ix, err := build(
		&dice.UserSolInstructionAccounts{
			User:        user.PublicKey(),
			EscrowVault: addresses.escrowVault,
			GameVault:   addresses.gameVault,
			UserPool:    addresses.userPool,
		},
		&dice.TransferInstructionArgs{
			EscrowBump: addresses.escrowBump,
			GameBump:   addresses.gameBump,
			ExAmount:   exLamports,
			Amount:     lamports,
		},
	)
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, method, user, Plan{Program: ix})
}

// DepositAsset moves amount of mint from the user's wallet into their
// escrow, creating the escrow's token account when needed.
func (s *Service) DepositAsset(ctx context.Context, user solana.Signer, mint ed25519.PublicKey, ex, amount decimal.Decimal) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "DepositAsset")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("DepositAsset", user.PublicKey()).WithFields(logrus.Fields{
		"mint":      base58.Encode(mint),
		"ex_amount": ex.String(),
		"amount":    amount.String(),
	})

	addresses, err := s.userAddresses(user.PublicKey())
	if err != nil {
		return sig, err
	}

	if err := s.checkCapacity(ctx, log, user.PublicKey(), mint); err != nil {
		return sig, err
	}

	args, err := s.assetArgs(ctx, addresses, addresses.user, mint, ex, amount)
	if err != nil {
		return sig, err
	}

	creations, custody, err := s.resolver.Resolve(ctx, addresses.user, addresses.escrowVault, mint)
	if err != nil {
		return sig, err
	}
	userTokenAccount, err := token.GetAssociatedAccount(addresses.user, mint)
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive user token account")
	}
	gameTokenAccount, err := token.GetAssociatedAccount(addresses.gameVault, mint)
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive game token account")
	}

	ix, err := s.program.NewDepositUserTokenInstruction(
		addresses.tokenAccounts(mint, userTokenAccount, custody[0], gameTokenAccount),
		args,
	)
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "DepositAsset", user, Plan{AccountCreations: creations, Program: ix})
}

// WithdrawAsset moves amount of mint from the user's escrow back to their
// wallet, creating the wallet's token account when needed.
func (s *Service) WithdrawAsset(ctx context.Context, user solana.Signer, mint ed25519.PublicKey, ex, amount decimal.Decimal) (sig solana.Signature, err error) {
	tracer := metrics.TraceMethodCall(s.metrics, metricsStructName, "WithdrawAsset")
	defer tracer.End()
	defer func() { tracer.OnError(err) }()

	log := s.operationLog("WithdrawAsset", user.PublicKey()).WithFields(logrus.Fields{
		"mint":      base58.Encode(mint),
		"ex_amount": ex.String(),
		"amount":    amount.String(),
	})

	addresses, err := s.userAddresses(user.PublicKey())
	if err != nil {
		return sig, err
	}

	args, err := s.assetArgs(ctx, addresses, addresses.escrowVault, mint, ex, amount)
	if err != nil {
		return sig, err
	}

	creations, custody, err := s.resolver.Resolve(ctx, addresses.user, addresses.user, mint)
	if err != nil {
		return sig, err
	}
	vaultTokenAccount, err := token.GetAssociatedAccount(addresses.escrowVault, mint)
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive vault token account")
	}
	gameTokenAccount, err := token.GetAssociatedAccount(addresses.gameVault, mint)
	if err != nil {
		return sig, errors.Wrap(err, "failed to derive game token account")
	}

	ix, err := s.program.NewWithdrawUserTokenInstruction(
		addresses.tokenAccounts(mint, custody[0], vaultTokenAccount, gameTokenAccount),
		args,
	)
	if err != nil {
		return sig, err
	}

	return s.submit(ctx, log, "WithdrawAsset", user, Plan{AccountCreations: creations, Program: ix})
}

// ReadGlobalState returns the program's registry, or nil when it cannot be
// read.
func (s *Service) ReadGlobalState(ctx context.Context) *dice.GlobalPoolAccount {
	log := s.log.WithField("method", "ReadGlobalState")

	pool, err := s.state.FetchGlobalPool(ctx)
	if err != nil {
		logStateError(log, err)
		return nil
	}
	return pool
}

// ReadUserState returns user's pool record, or nil when it cannot be read.
func (s *Service) ReadUserState(ctx context.Context, user ed25519.PublicKey) *dice.UserPoolAccount {
	if len(user) != ed25519.PublicKeySize {
		return nil
	}

	log := s.log.WithFields(logrus.Fields{
		"method": "ReadUserState",
		"user":   base58.Encode(user),
	})

	pool, err := s.state.FetchUserPool(ctx, user)
	if err != nil {
		logStateError(log, err)
		return nil
	}
	return pool
}

func logStateError(log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, ErrStateNotFound):
		log.WithError(err).Debug("state not found")
	case errors.Is(err, ErrStateMalformed):
		log.WithError(err).Warn("state malformed")
	default:
		log.WithError(err).Warn("failed to read state")
	}
}

type userAddresses struct {
	user        ed25519.PublicKey
	escrowVault ed25519.PublicKey
	escrowBump  uint8
	gameVault   ed25519.PublicKey
	gameBump    uint8
	userPool    ed25519.PublicKey
	global      ed25519.PublicKey
}

func (s *Service) userAddresses(user ed25519.PublicKey) (*userAddresses, error) {
	var (
		addresses = &userAddresses{user: user}
		err       error
	)

	addresses.escrowVault, addresses.escrowBump, err = s.program.GetEscrowVaultAddress(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive escrow vault")
	}
	addresses.gameVault, addresses.gameBump, err = s.program.GetGameVaultAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive game vault")
	}
	addresses.global, _, err = s.program.GetGlobalAuthorityAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive global authority")
	}
	addresses.userPool, err = s.program.GetUserPoolAddress(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive user pool")
	}

	return addresses, nil
}

func (a *userAddresses) tokenAccounts(mint, userTokenAccount, vaultTokenAccount, gameTokenAccount ed25519.PublicKey) *dice.UserTokenInstructionAccounts {
	return &dice.UserTokenInstructionAccounts{
		User:              a.user,
		EscrowVault:       a.escrowVault,
		GameVault:         a.gameVault,
		UserPool:          a.userPool,
		GlobalAuthority:   a.global,
		UserTokenAccount:  userTokenAccount,
		VaultTokenAccount: vaultTokenAccount,
		GameTokenAccount:  gameTokenAccount,
		TokenMint:         mint,
	}
}

// assetArgs converts ex and amount using the decimals seen by owner's
// associated account of mint.
func (s *Service) assetArgs(ctx context.Context, addresses *userAddresses, owner, mint ed25519.PublicKey, ex, amount decimal.Decimal) (*dice.TransferInstructionArgs, error) {
	exp, ok := s.decimals.ResolveDecimals(ctx, owner, mint)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Wrap(ErrDecimalsUnavailable, base58.Encode(mint))
	}

	exUnits, err := ToBaseUnits(ex, exp)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ex amount")
	}
	units, err := ToBaseUnits(amount, exp)
	if err != nil {
		return nil, err
	}

	return &dice.TransferInstructionArgs{
		EscrowBump: addresses.escrowBump,
		GameBump:   addresses.gameBump,
		ExAmount:   exUnits,
		Amount:     units,
	}, nil
}

// checkCapacity refuses a deposit of a new asset into a record whose slots
// are all taken. A record that cannot be read is left for the program to
// reject.
func (s *Service) checkCapacity(ctx context.Context, log *logrus.Entry, user, mint ed25519.PublicKey) error {
	pool, err := s.state.FetchUserPool(ctx, user)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.WithError(err).Debug("skipping capacity check")
		return nil
	}

	if !pool.Holds(mint) && len(pool.Assets) >= dice.MaxTokens {
		return errors.Wrapf(ErrUserPoolFull, "%d assets", len(pool.Assets))
	}
	return nil
}

func (s *Service) operationLog(method string, actor ed25519.PublicKey) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"method":       method,
		"operation_id": uuid.New().String(),
		"actor":        base58.Encode(actor),
	})
}

func (s *Service) submit(ctx context.Context, log *logrus.Entry, method string, signer solana.Signer, plan Plan) (solana.Signature, error) {
	start := time.Now()
	sig, err := s.assembler.Submit(ctx, signer, plan)
	s.metrics.RecordDuration(submitDurationMetric, time.Since(start))

	outcome := submitOutcome(err)
	s.metrics.RecordCount(operationCountMetric+outcome, 1)
	s.metrics.RecordEvent(operationEventName, map[string]interface{}{
		"operation": method,
		"outcome":   outcome,
		"signature": sig.String(),
	})

	log = log.WithFields(logrus.Fields{
		"signature": sig.String(),
		"outcome":   outcome,
	})
	if err != nil {
		log.WithError(err).Warn("operation failed")
		return sig, err
	}

	log.Info("operation confirmed")
	return sig, nil
}

func submitOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrSigningFailed):
		return "signing_failed"
	case errors.Is(err, ErrSubmissionRejected):
		return "rejected"
	case errors.Is(err, ErrConfirmationTimeout):
		return "timeout"
	case errors.Is(err, ErrTransactionFailed):
		return "failed"
	default:
		return "error"
	}
}
