// Package ens resolves ENS names for transfer recipients and account lookups.
package ens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/neondash/internal/chain"
)

// RegistryAddress is the ENS registry, deployed at the same address on
// Ethereum mainnet and Sepolia.
const RegistryAddress = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

var (
	ErrNoResolver = errors.New("no resolver set")
	ErrNoRecord   = errors.New("no address record")
)

var (
	selResolver = []byte{0x01, 0x78, 0xb8, 0xbf} // resolver(bytes32)
	selAddr     = []byte{0x3b, 0x3b, 0x57, 0xde} // addr(bytes32)
	selName     = []byte{0x69, 0x1f, 0x34, 0x31} // name(bytes32)
)

// Resolver queries the ENS registry through a contract caller.
type Resolver struct {
	caller   chain.Caller
	registry common.Address
}

// NewResolver returns a resolver using the canonical registry.
func NewResolver(caller chain.Caller) *Resolver {
	return &Resolver{caller: caller, registry: common.HexToAddress(RegistryAddress)}
}

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	s = strings.TrimSpace(s)
	return strings.Contains(s, ".") && !strings.HasPrefix(s, "0x") && !strings.HasSuffix(s, ".")
}

// Resolve returns the address name points to.
func (r *Resolver) Resolve(ctx context.Context, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	node := Namehash(name)

	resolver, err := r.resolverOf(ctx, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", name, err)
	}
	out, err := r.caller.CallContract(ctx, resolver, withNode(selAddr, node))
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	addr, ok := wordAddress(out)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: %w", name, ErrNoRecord)
	}
	return addr, nil
}

// Lookup returns the primary name of addr. The name is only returned when it
// resolves back to addr.
func (r *Resolver) Lookup(ctx context.Context, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")

	resolver, err := r.resolverOf(ctx, node)
	if err != nil {
		return "", fmt.Errorf("reverse %s: %w", addr.Hex(), err)
	}
	out, err := r.caller.CallContract(ctx, resolver, withNode(selName, node))
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	name := decodeString(out)
	if name == "" {
		return "", fmt.Errorf("reverse %s: %w", addr.Hex(), ErrNoRecord)
	}

	forward, err := r.Resolve(ctx, name)
	if err != nil || forward != addr {
		return "", fmt.Errorf("reverse %s: %q does not resolve back", addr.Hex(), name)
	}
	return name, nil
}

func (r *Resolver) resolverOf(ctx context.Context, node [32]byte) (common.Address, error) {
	out, err := r.caller.CallContract(ctx, r.registry, withNode(selResolver, node))
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	addr, ok := wordAddress(out)
	if !ok {
		return common.Address{}, ErrNoResolver
	}
	return addr, nil
}

// Namehash implements the EIP-137 namehash.
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := keccak256([]byte(labels[i]))
		copy(node[:], keccak256(node[:], label))
	}
	return node
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func withNode(selector []byte, node [32]byte) []byte {
	return append(append([]byte{}, selector...), node[:]...)
}

// wordAddress reads the address in the first 32-byte word. The zero address
// counts as absent.
func wordAddress(out []byte) (common.Address, bool) {
	if len(out) < 32 {
		return common.Address{}, false
	}
	addr := common.BytesToAddress(out[12:32])
	return addr, addr != (common.Address{})
}

// decodeString decodes an ABI-encoded string return value.
func decodeString(out []byte) string {
	if len(out) < 64 {
		return ""
	}
	offset := new(big.Int).SetBytes(out[:32])
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(out)) {
		return ""
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(out[start : start+32])
	if !length.IsUint64() {
		return ""
	}
	end := start + 32 + length.Uint64()
	if end > uint64(len(out)) {
		return ""
	}
	return string(out[start+32 : end])
}
