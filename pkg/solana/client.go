package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	"golang.org/x/time/rate"

	"github.com/code-payments/dice-client/pkg/retry"
	"github.com/code-payments/dice-client/pkg/retry/backoff"
)

const (
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which signature statuses are polled.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromString maps a commitment level name onto its Commitment.
func CommitmentFromString(level string) (Commitment, error) {
	switch level {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	}
	return Commitment{}, errors.Errorf("unknown commitment level %q", level)
}

var (
	ErrNoAccountInfo           = errors.New("no account info")
	ErrSignatureNotFound       = errors.New("signature not found")
	ErrTransactionNotConfirmed = errors.New("transaction not confirmed within poll limit")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// ParsedAccountInfo is the jsonParsed view of an account. Program, Type and
// Info are empty when the node has no parser for the owning program.
type ParsedAccountInfo struct {
	Owner    ed25519.PublicKey
	Lamports uint64
	Program  string
	Type     string
	Info     json.RawMessage
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Reached reports whether the status satisfies the commitment level.
func (s SignatureStatus) Reached(commitment Commitment) bool {
	switch commitment {
	case CommitmentProcessed:
		return true
	case CommitmentConfirmed:
		return s.Confirmed()
	case CommitmentFinalized:
		return s.Finalized()
	}
	return false
}

type TokenAmount struct {
	Amount   string `json:"amount"`   // example: "49801500000",
	Decimals uint64 `json:"decimals"` // example: 5,
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetParsedAccountInfo(ed25519.PublicKey, Commitment) (ParsedAccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetLatestBlockhash(Commitment) (Blockhash, error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	SubmitTransaction(Transaction, Commitment) (Signature, error)
	ConfirmTransaction(Signature, Commitment) error
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier *retry.Retrier
	limiter *rate.Limiter

	pollRate  time.Duration
	pollLimit uint
}

// Option configures the client.
type Option func(*client)

// WithRPCOptions sets the underlying JSON-RPC client options.
func WithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Option {
	return func(c *client) {
		c.client = jsonrpc.NewClientWithOpts(endpoint, opts)
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithConfirmationPolling overrides how often and how many times signature
// statuses are polled while waiting for a confirmation.
func WithConfirmationPolling(interval time.Duration, limit uint) Option {
	return func(c *client) {
		if interval > 0 {
			c.pollRate = interval
		}
		if limit > 0 {
			c.pollLimit = limit
		}
	}
}

// New returns a client using the specified endpoint.
func New(endpoint string, opts ...Option) Client {
	c := &client{
		log:       logrus.StandardLogger().WithField("type", "solana/client"),
		client:    jsonrpc.NewClient(endpoint),
		pollRate:  PollRate,
		pollLimit: sigStatusPollLimit,
	}
	c.retrier = retry.NewRetrier(
		retry.RetriableErrors(errRateLimited, errServiceError),
		retry.Limit(3),
		retry.Notify(func(attempts uint, err error) {
			c.log.WithError(err).WithField("attempt", attempts).Debug("retrying rpc call")
		}),
		retry.Backoff(backoff.Jittered(backoff.Capped(backoff.BinaryExponential(time.Second), 10*time.Second), 0.1)),
	)
	for _, o := range opts {
		o(c)
	}
	return c
}

// call performs an idempotent read, retrying on rate limits and node faults.
func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		return c.callOnce(out, method, params...)
	})

	return err
}

func (c *client) callOnce(out interface{}, method string, params ...interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return errors.Wrap(err, "rate limiter")
		}
	}

	err := c.client.CallFor(out, method, params...)
	if err == nil {
		return nil
	}

	return c.handleRpcError(method, err)
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		c.log.WithField("method", method).WithError(err).Warn("service error")
		return errServiceError
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetLatestBlockhash(commitment Commitment) (hash Blockhash, err error) {
	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash", commitment); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)
	return hash, nil
}

func (c *client) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signature()
	txnBytes := txn.Marshal()

	config := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		SkipPreflight:       false,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.callOnce(&sigStr, "sendTransaction", base58.Encode(txnBytes), config)
	if err == nil {
		return sig, nil
	}

	jsonRPCErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
	}

	txResult, parseErr := ParseRPCError(jsonRPCErr)
	if parseErr != nil || txResult == nil {
		return sig, errors.Wrap(err, "sendTransaction() rejected")
	}

	c.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	}).WithError(txResult).Debug("transaction rejected")

	return sig, txResult
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data in response")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetParsedAccountInfo(account ed25519.PublicKey, commitment Commitment) (info ParsedAccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports uint64          `json:"lamports"`
			Owner    string          `json:"owner"`
			Data     json.RawMessage `json:"data"`
		} `json:"value"`
	}

	type parsedData struct {
		Program string `json:"program"`
		Parsed  struct {
			Type string          `json:"type"`
			Info json.RawMessage `json:"info"`
		} `json:"parsed"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "jsonParsed",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return info, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return info, ErrNoAccountInfo
	}

	info.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return info, errors.Wrap(err, "invalid base58 encoded owner")
	}
	info.Lamports = resp.Value.Lamports

	// Unparseable accounts come back as a [data, encoding] pair instead.
	if len(resp.Value.Data) > 0 && resp.Value.Data[0] == '{' {
		var data parsedData
		if err := json.Unmarshal(resp.Value.Data, &data); err != nil {
			return info, errors.Wrap(err, "invalid parsed account data")
		}
		info.Program = data.Program
		info.Type = data.Parsed.Type
		info.Info = data.Parsed.Info
	}

	return info, nil
}

// GetSignatureStatus polls until the signature reaches the commitment level
// or the poll limit is exhausted. A transaction that executed with an error
// is returned alongside its *TransactionError.
func (c *client) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return s.ErrorResult
			}

			if s.Reached(commitment) {
				return nil
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(c.pollLimit),
		retry.Backoff(backoff.Constant(c.pollRate)),
	)

	if errors.Is(err, errConfirmationsNotReached) {
		return s, ErrTransactionNotConfirmed
	}
	return s, err
}

// ConfirmTransaction blocks until sig reaches the commitment level. It returns
// ErrTransactionNotConfirmed when the poll bound is reached first, and the
// ledger's *TransactionError when the transaction failed on-chain.
func (c *client) ConfirmTransaction(sig Signature, commitment Commitment) error {
	_, err := c.GetSignatureStatus(sig, commitment)
	if errors.Is(err, ErrSignatureNotFound) {
		return errors.Wrap(ErrTransactionNotConfirmed, "signature never observed")
	}
	return err
}

func (c *client) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(&resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if i >= len(statuses) {
			break
		}
		if v == nil {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].ConfirmationStatus = v.ConfirmationStatus
		statuses[i].Slot = v.Slot

		if len(v.Err) > 0 && !bytes.Equal(v.Err, []byte("null")) {
			var txError interface{}
			d := json.NewDecoder(bytes.NewBuffer(v.Err))
			d.UseNumber()
			if err := d.Decode(&txError); err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			var err error
			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}
