package wallet_test

import (
	"testing"

	"github.com/Mohsinsiddi/neondash/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat/Anvil test accounts #0 and #1. Never fund on mainnet.
const (
	key0  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	addr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	key1  = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	addr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.AddWatchOnly("watcher", "0x1234567890abcdef1234567890abcdef12345678"))

	w, err := mgr.Get("watcher")
	require.NoError(t, err)
	assert.Equal(t, "watcher", w.Name)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.False(t, w.CanSign())
	assert.Equal(t, common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678").Hex(), w.Address, "address is checksummed")
}

func TestAddWatchOnlyInvalidAddress(t *testing.T) {
	mgr := wallet.NewManager()
	err := mgr.AddWatchOnly("bad", "0x123")
	assert.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.AddWithKey("dup", key0))
	err := mgr.AddWithKey("dup", key1)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.AddWithKey("signer", key0))

	w, err := mgr.Get("signer")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, addr0, w.Address) // known address for test key
	assert.NotEmpty(t, w.CreatedAt)

	stored, err := mgr.Keystore().Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, key0[2:], stored, "keys are stored without 0x")
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestListWalletsSortedByName(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("zed", key0))
	require.NoError(t, mgr.AddWithKey("amy", key1))

	wallets, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "amy", wallets[0].Name)
	assert.Equal(t, "zed", wallets[1].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeystore(ks))
	require.NoError(t, mgr.AddWithKey("w1", key0))
	w, _ := mgr.Get("w1")

	require.NoError(t, mgr.Remove("w1"))

	_, err := mgr.Get("w1")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = ks.Retrieve(w.KeyRef)
	assert.Error(t, err)
}

func TestRemoveNonExistentWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.Remove("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestSetDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("w1", key0))
	require.NoError(t, mgr.AddWithKey("w2", key1))

	require.NoError(t, mgr.SetDefault("w2"))

	def := mgr.Default()
	require.NotNil(t, def)
	assert.Equal(t, "w2", def.Name)
}

func TestSetDefaultUnknown(t *testing.T) {
	mgr := wallet.NewManager()
	assert.ErrorIs(t, mgr.SetDefault("ghost"), wallet.ErrWalletNotFound)
}

func TestDefaultWalletWithSingleWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("only", key0))

	def := mgr.Default()
	require.NotNil(t, def)
	assert.Equal(t, "only", def.Name)
}

func TestDefaultNoneWithSeveral(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))
	require.NoError(t, mgr.AddWithKey("b", key1))
	assert.Nil(t, mgr.Default())
}

func TestByAddressCaseInsensitive(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("w", key0))

	w, err := mgr.ByAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, "w", w.Name)

	_, err = mgr.ByAddress(addr1)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}
