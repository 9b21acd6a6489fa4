package providers

import (
	"github.com/Mohsinsiddi/neondash/internal/config"
)

// BuildRegistry assembles the providers configured in c, in priority order:
//
//  1. Etherscan V2  (if explorer_api.etherscan_key is set)
//  2. Blockscout    (if explorer_api.blockscout_url is set; no key needed)
func BuildRegistry(c *config.Config, opts ...Option) *Registry {
	var ps []Provider
	if e := NewEtherscan(c.ChainID, c.ExplorerAPI.EtherscanKey, opts...); e != nil {
		ps = append(ps, e)
	}
	if b := NewBlockScout(c.ExplorerAPI.BlockscoutURL, c.ExplorerAPI.BlockscoutKey, opts...); b != nil {
		ps = append(ps, b)
	}
	return New(ps...)
}
