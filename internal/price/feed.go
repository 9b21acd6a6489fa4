package price

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/neondash/internal/chain"
)

// DefaultETHUSDFeed is the Chainlink ETH/USD aggregator on Sepolia.
const DefaultETHUSDFeed = "0x694AA1769357215DE4FAC081bf1f309aDC325306"

const aggregatorABIJSON = `[
  {"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"latestRoundData","outputs":[
    {"name":"roundId","type":"uint80"},
    {"name":"answer","type":"int256"},
    {"name":"startedAt","type":"uint256"},
    {"name":"updatedAt","type":"uint256"},
    {"name":"answeredInRound","type":"uint80"}
  ],"stateMutability":"view","type":"function"}
]`

var (
	aggregatorABI     abi.ABI
	aggregatorABIOnce sync.Once
	aggregatorABIErr  error
)

func getAggregatorABI() (abi.ABI, error) {
	aggregatorABIOnce.Do(func() {
		aggregatorABI, aggregatorABIErr = abi.JSON(strings.NewReader(aggregatorABIJSON))
	})
	return aggregatorABI, aggregatorABIErr
}

// FeedReader reads a Chainlink price aggregator.
type FeedReader struct {
	caller  chain.Caller
	address common.Address
}

// NewFeedReader returns a reader for the aggregator at address.
func NewFeedReader(caller chain.Caller, address string) *FeedReader {
	return &FeedReader{caller: caller, address: common.HexToAddress(address)}
}

// Latest returns the most recent answer scaled by the feed's decimals.
func (r *FeedReader) Latest(ctx context.Context) (decimal.Decimal, error) {
	decValues, err := r.call(ctx, "decimals")
	if err != nil {
		return decimal.Zero, err
	}
	dec, ok := decValues[0].(uint8)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: decimals returned %T", ErrPriceUnavailable, decValues[0])
	}

	round, err := r.call(ctx, "latestRoundData")
	if err != nil {
		return decimal.Zero, err
	}
	if len(round) < 2 {
		return decimal.Zero, fmt.Errorf("%w: short latestRoundData", ErrPriceUnavailable)
	}
	answer, ok := round[1].(*big.Int)
	if !ok || answer.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: invalid feed answer", ErrPriceUnavailable)
	}
	return decimal.NewFromBigInt(answer, -int32(dec)), nil
}

func (r *FeedReader) call(ctx context.Context, method string) ([]interface{}, error) {
	parsed, err := getAggregatorABI()
	if err != nil {
		return nil, fmt.Errorf("%w: parse aggregator abi: %v", ErrPriceUnavailable, err)
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrPriceUnavailable, method, err)
	}
	resp, err := r.caller.CallContract(ctx, r.address, data)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrPriceUnavailable, method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrPriceUnavailable, method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s returned nothing", ErrPriceUnavailable, method)
	}
	return values, nil
}
