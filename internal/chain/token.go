package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/neondash/internal/token"
)

// tokenABIJSON covers the read and write surface of the dashboard's tokens.
// mint and burn take the account the supply change applies to.
const tokenABIJSON = `[
  {"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"}],"name":"burn","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	tokenABI     abi.ABI
	tokenABIOnce sync.Once
	tokenABIErr  error
)

// TokenABI returns the parsed token contract ABI.
func TokenABI() (abi.ABI, error) {
	tokenABIOnce.Do(func() {
		tokenABI, tokenABIErr = abi.JSON(strings.NewReader(tokenABIJSON))
	})
	return tokenABI, tokenABIErr
}

// PackTransfer encodes transfer(to, amount).
func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return pack("transfer", to, amount)
}

// PackMint encodes mint(to, amount).
func PackMint(to common.Address, amount *big.Int) ([]byte, error) {
	return pack("mint", to, amount)
}

// PackBurn encodes burn(from, amount).
func PackBurn(from common.Address, amount *big.Int) ([]byte, error) {
	return pack("burn", from, amount)
}

func pack(method string, args ...interface{}) ([]byte, error) {
	parsed, err := TokenABI()
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// BalanceReader reads token state for display.
type BalanceReader struct {
	caller Caller
}

// NewBalanceReader returns a reader issuing calls through caller.
func NewBalanceReader(caller Caller) *BalanceReader {
	return &BalanceReader{caller: caller}
}

// GetBalance returns account's balance of d as a human decimal string.
func (r *BalanceReader) GetBalance(ctx context.Context, account string, d token.Descriptor) (string, error) {
	if !common.IsHexAddress(account) {
		return "", fmt.Errorf("%w: invalid account %q", ErrRead, account)
	}
	raw, err := r.BalanceOf(ctx, common.HexToAddress(account), common.HexToAddress(d.Address))
	if err != nil {
		return "", err
	}
	return token.FormatUnits(raw, d.Decimals), nil
}

// BalanceOf returns the raw balance of owner on the token at contract.
func (r *BalanceReader) BalanceOf(ctx context.Context, owner, contract common.Address) (*big.Int, error) {
	values, err := r.call(ctx, contract, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: balanceOf returned %T", ErrRead, values[0])
	}
	return n, nil
}

// Metadata is what a token contract reports about itself.
type Metadata struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
}

// TokenMetadata reads name(), symbol() and decimals() from contract.
func (r *BalanceReader) TokenMetadata(ctx context.Context, contract common.Address) (Metadata, error) {
	meta := Metadata{Address: contract.Hex()}

	values, err := r.call(ctx, contract, "decimals")
	if err != nil {
		return meta, err
	}
	dec, ok := values[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("%w: decimals returned %T", ErrRead, values[0])
	}
	meta.Decimals = dec

	if values, err := r.call(ctx, contract, "symbol"); err == nil {
		meta.Symbol, _ = values[0].(string)
	}
	if values, err := r.call(ctx, contract, "name"); err == nil {
		meta.Name, _ = values[0].(string)
	}
	return meta, nil
}

// Owner returns the contract's owner() address.
func (r *BalanceReader) Owner(ctx context.Context, contract common.Address) (common.Address, error) {
	values, err := r.call(ctx, contract, "owner")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: owner returned %T", ErrRead, values[0])
	}
	return addr, nil
}

func (r *BalanceReader) call(ctx context.Context, contract common.Address, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := TokenABI()
	if err != nil {
		return nil, fmt.Errorf("%w: parse token abi: %v", ErrRead, err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrRead, method, err)
	}
	resp, err := r.caller.CallContract(ctx, contract, data)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrRead, method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrRead, method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s returned nothing", ErrRead, method)
	}
	return values, nil
}
