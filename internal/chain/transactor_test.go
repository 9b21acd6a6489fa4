package chain

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keySigner struct {
	key *ecdsa.PrivateKey
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() string { return crypto.PubkeyToAddress(s.key.PublicKey).Hex() }

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}

func decodeSent(t *testing.T, rawHex string) *types.Transaction {
	t.Helper()
	raw, err := hexutil.Decode(rawHex)
	require.NoError(t, err)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	return tx
}

func TestTransactorSendBuildsDynamicFeeTx(t *testing.T) {
	var sent string
	srv := rpcHandler(t, func(method string, params []json.RawMessage) (interface{}, bool) {
		switch method {
		case "eth_estimateGas":
			return "0xc350", true
		case "eth_gasPrice":
			return "0x3b9aca00", true
		case "eth_getTransactionCount":
			return "0x5", true
		case "eth_sendRawTransaction":
			_ = json.Unmarshal(params[0], &sent)
			return "0xfeed", true
		}
		return nil, false
	})

	signer := newKeySigner(t)
	chainID := big.NewInt(11155111)
	contract := common.HexToAddress("0x8ec06564305BF5624a784d943572Bc1A0ccB8166")
	data, err := PackTransfer(common.HexToAddress("0xdead"), big.NewInt(42))
	require.NoError(t, err)

	hash, err := NewTransactor(NewEVMClient(srv.URL), signer, chainID).Send(ctx, contract, data)
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", hash)

	tx := decodeSent(t, sent)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, uint64(50000), tx.Gas())
	assert.Equal(t, int64(1_000_000_000), tx.GasTipCap().Int64())
	assert.Equal(t, int64(2_000_000_000), tx.GasFeeCap().Int64())
	assert.Equal(t, contract, *tx.To())
	assert.Equal(t, data, tx.Data())
	assert.Equal(t, 0, tx.ChainId().Cmp(chainID))

	from, err := types.Sender(types.NewLondonSigner(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from.Hex())
}

func TestTransactorGasFallback(t *testing.T) {
	var sent string
	srv := rpcHandler(t, func(method string, params []json.RawMessage) (interface{}, bool) {
		switch method {
		case "eth_gasPrice":
			return "0x1", true
		case "eth_getTransactionCount":
			return "0x0", true
		case "eth_sendRawTransaction":
			_ = json.Unmarshal(params[0], &sent)
			return "0xbeef", true
		}
		return nil, false
	})
	_, err := NewTransactor(NewEVMClient(srv.URL), newKeySigner(t), big.NewInt(1), WithForceSend(true)).
		Send(ctx, common.HexToAddress("0x1"), []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, uint64(fallbackGas), decodeSent(t, sent).Gas())
}

func TestTransactorRefusesWhenEstimateFails(t *testing.T) {
	var broadcast bool
	srv := rpcHandler(t, func(method string, _ []json.RawMessage) (interface{}, bool) {
		switch method {
		case "eth_gasPrice":
			return "0x1", true
		case "eth_getTransactionCount":
			return "0x0", true
		case "eth_sendRawTransaction":
			broadcast = true
			return "0xbeef", true
		}
		return nil, false
	})
	_, err := NewTransactor(NewEVMClient(srv.URL), newKeySigner(t), big.NewInt(1)).
		Send(ctx, common.HexToAddress("0x1"), []byte{0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEstimateGas)
	assert.Contains(t, err.Error(), "method not found")
	assert.False(t, broadcast, "nothing sent after a failed estimate")
}

func TestTransactorGasPriceFailure(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{"eth_estimateGas": "0x5208"})
	_, err := NewTransactor(NewEVMClient(srv.URL), newKeySigner(t), big.NewInt(1)).
		Send(ctx, common.HexToAddress("0x1"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting gas price")
}

func TestTransactorBroadcastFailure(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_estimateGas":         "0x5208",
		"eth_gasPrice":            "0x1",
		"eth_getTransactionCount": "0x0",
	})
	_, err := NewTransactor(NewEVMClient(srv.URL), newKeySigner(t), big.NewInt(1)).
		Send(ctx, common.HexToAddress("0x1"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broadcasting transaction")
}
