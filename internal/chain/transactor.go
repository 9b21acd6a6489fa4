package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// fallbackGas is used when eth_estimateGas fails and the transactor forces
// sending anyway.
const fallbackGas = 100000

// ErrEstimateGas is returned by Send when the node cannot estimate gas for a
// call, which usually means the call would revert.
var ErrEstimateGas = errors.New("gas estimation failed")

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Transactor builds, signs and broadcasts contract calls for one account.
type Transactor struct {
	client  *EVMClient
	signer  TxSigner
	chainID *big.Int
	force   bool
}

// TransactorOption configures a Transactor.
type TransactorOption func(*Transactor)

// WithForceSend makes Send fall back to a fixed gas limit when estimation
// fails instead of refusing to send.
func WithForceSend(force bool) TransactorOption {
	return func(t *Transactor) { t.force = force }
}

// NewTransactor creates a Transactor.
func NewTransactor(client *EVMClient, signer TxSigner, chainID *big.Int, opts ...TransactorOption) *Transactor {
	t := &Transactor{client: client, signer: signer, chainID: chainID}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Send calls contract `to` with data and returns the transaction hash.
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte) (string, error) {
	from := common.HexToAddress(t.signer.Address())

	gas, err := t.client.EstimateGas(ctx, from, to, data)
	if err != nil {
		if !t.force {
			return "", fmt.Errorf("%w: %v", ErrEstimateGas, err)
		}
		t.client.log.Warn("gas estimate failed, sending with fallback limit",
			zap.String("to", to.Hex()), zap.Uint64("gas", fallbackGas), zap.Error(err))
		gas = fallbackGas
	}

	gasPrice, err := t.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := t.client.PendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})

	raw, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := t.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	return hash, nil
}

// WaitMined blocks until hash is mined. See EVMClient.WaitMined.
func (t *Transactor) WaitMined(ctx context.Context, hash string) (*TxReceipt, error) {
	return t.client.WaitMined(ctx, hash)
}
