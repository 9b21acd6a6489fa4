// Package submit validates and sends transfer, mint and burn operations and
// records confirmed ones in the ledger.
package submit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/chain"
	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/token"
)

var (
	// ErrInvalidRequest is wrapped by every validation failure. Nothing is
	// sent to the chain when it is returned.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrOperationFailed covers rejection, broadcast failure, revert and
	// confirmation timeout. The ledger is untouched.
	ErrOperationFailed = errors.New("operation failed")

	ErrNotConnected     = fmt.Errorf("%w: no account connected", ErrInvalidRequest)
	ErrMissingRecipient = fmt.Errorf("%w: recipient is required", ErrInvalidRequest)
	ErrInvalidRecipient = fmt.Errorf("%w: recipient is not a valid address", ErrInvalidRequest)
	ErrMintNotAllowed   = fmt.Errorf("%w: minting is not allowed for this token", ErrInvalidRequest)
)

// DefaultConfirmTimeout bounds how long Submit waits for a receipt.
const DefaultConfirmTimeout = 5 * time.Minute

// Request is a user's intent to change token balances.
type Request struct {
	Kind      ledger.Kind
	Recipient string
	Amount    string
}

// Plan is a validated request, ready to sign.
type Plan struct {
	Kind     ledger.Kind
	Token    token.Descriptor
	Account  common.Address
	To       common.Address
	Amount   *big.Int
	Display  string
	Calldata []byte
}

// Result describes a confirmed operation. PersistErr is set when the entry
// could only be kept in memory; the operation itself still succeeded.
type Result struct {
	Entry      ledger.Entry
	Receipt    *chain.TxReceipt
	PersistErr error
}

// Sender broadcasts contract calls for one account.
type Sender interface {
	Send(ctx context.Context, to common.Address, data []byte) (string, error)
	WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error)
}

// SenderFunc returns the Sender acting for account.
type SenderFunc func(account string) (Sender, error)

// ConfirmFunc is shown the plan before signing. Returning false declines.
type ConfirmFunc func(p Plan) bool

// Submitter runs operations end to end.
type Submitter struct {
	reg     *token.Registry
	senders SenderFunc
	ledger  *ledger.Ledger
	confirm ConfirmFunc
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithConfirm installs the signature prompt.
func WithConfirm(fn ConfirmFunc) Option {
	return func(s *Submitter) { s.confirm = fn }
}

// WithConfirmTimeout bounds the wait for a receipt.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock sets the completion time source.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Submitter) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Submitter.
func New(reg *token.Registry, senders SenderFunc, l *ledger.Ledger, opts ...Option) *Submitter {
	s := &Submitter{
		reg:     reg,
		senders: senders,
		ledger:  l,
		timeout: DefaultConfirmTimeout,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validate checks req against the acting account and token without touching
// the chain.
func (s *Submitter) Validate(account string, d token.Descriptor, req Request) (Plan, error) {
	p := Plan{Kind: req.Kind, Token: d}

	account = strings.TrimSpace(account)
	if account == "" {
		return p, ErrNotConnected
	}
	if !common.IsHexAddress(account) {
		return p, fmt.Errorf("%w: account %q is not a valid address", ErrInvalidRequest, account)
	}
	p.Account = common.HexToAddress(account)

	switch req.Kind {
	case ledger.Transfer:
		rcpt := strings.TrimSpace(req.Recipient)
		if rcpt == "" {
			return p, ErrMissingRecipient
		}
		if !common.IsHexAddress(rcpt) {
			return p, ErrInvalidRecipient
		}
		p.To = common.HexToAddress(rcpt)
	case ledger.Mint:
		if !s.reg.Mintable(d.Symbol) {
			return p, ErrMintNotAllowed
		}
		p.To = p.Account
	case ledger.Burn:
		p.To = p.Account
	default:
		return p, fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, req.Kind)
	}

	amount, err := token.ParseUnits(req.Amount, d.Decimals)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	p.Amount = amount
	p.Display = token.FormatUnits(amount, d.Decimals)

	switch req.Kind {
	case ledger.Transfer:
		p.Calldata, err = chain.PackTransfer(p.To, amount)
	case ledger.Mint:
		p.Calldata, err = chain.PackMint(p.To, amount)
	case ledger.Burn:
		p.Calldata, err = chain.PackBurn(p.To, amount)
	}
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return p, nil
}

// Submit validates, signs, broadcasts and waits for req. On confirmation
// the operation is appended to the ledger.
func (s *Submitter) Submit(ctx context.Context, account string, d token.Descriptor, req Request) (Result, error) {
	p, err := s.Validate(account, d, req)
	if err != nil {
		return Result{}, err
	}

	if s.confirm != nil && !s.confirm(p) {
		return Result{}, fmt.Errorf("%w: signature declined", ErrOperationFailed)
	}

	sender, err := s.senders(p.Account.Hex())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}

	log := s.log.With(
		zap.String("op", string(p.Kind)),
		zap.String("token", d.Symbol),
		zap.String("account", p.Account.Hex()),
		zap.String("amount", p.Display),
	)

	hash, err := sender.Send(ctx, common.HexToAddress(d.Address), p.Calldata)
	if err != nil {
		log.Warn("operation not sent", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	log = log.With(zap.String("tx", hash))
	log.Info("operation sent")

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	receipt, err := sender.WaitMined(waitCtx, hash)
	if err != nil {
		log.Warn("operation not confirmed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}

	entry := ledger.Entry{
		Kind:      p.Kind,
		Amount:    p.Display,
		To:        p.To.Hex(),
		TxHash:    hash,
		GasUsed:   strconv.FormatUint(receipt.GasUsed, 10),
		Timestamp: ledger.Stamp(s.now()),
	}
	log.Info("operation confirmed", zap.Uint64("gas_used", receipt.GasUsed), zap.Uint64("block", receipt.BlockNumber))

	res := Result{Entry: entry, Receipt: receipt}
	if err := s.ledger.Append(entry); err != nil {
		log.Warn("ledger append not persisted", zap.Error(err))
		res.PersistErr = err
	}
	return res, nil
}
