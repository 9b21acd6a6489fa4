package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	etherscanBaseURL = "https://api.etherscan.io/v2/api"
	defaultTimeout   = 12 * time.Second
)

// ExplorerAPI talks to an Etherscan-compatible account API. Etherscan V2 and
// Blockscout share the tokentx action and response envelope.
type ExplorerAPI struct {
	name    string
	baseURL string
	apiKey  string
	chainID int64 // sent as chainid when non-zero (Etherscan V2)
	client  *http.Client
}

// Option configures an ExplorerAPI.
type Option func(*ExplorerAPI)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(e *ExplorerAPI) { e.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *ExplorerAPI) { e.client = c }
}

// NewEtherscan returns an Etherscan V2 provider for chainID, or nil when no
// API key is configured.
func NewEtherscan(chainID int64, apiKey string, opts ...Option) *ExplorerAPI {
	if apiKey == "" || chainID <= 0 {
		return nil
	}
	return newExplorer("etherscan", etherscanBaseURL, apiKey, chainID, opts)
}

// NewBlockScout returns a provider for a Blockscout instance's API. No key is
// needed; apiKey raises rate limits when set.
func NewBlockScout(apiURL, apiKey string, opts ...Option) *ExplorerAPI {
	if apiURL == "" {
		return nil
	}
	return newExplorer("blockscout", apiURL, apiKey, 0, opts)
}

func newExplorer(name, baseURL, apiKey string, chainID int64, opts []Option) *ExplorerAPI {
	e := &ExplorerAPI{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		chainID: chainID,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *ExplorerAPI) Name() string { return e.name }

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type rawTransfer struct {
	Hash            string `json:"hash"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	Value           string `json:"value"`
	GasUsed         string `json:"gasUsed"`
}

// TokenTransfers returns up to n ERC-20 transfers of address, newest first.
func (e *ExplorerAPI) TokenTransfers(ctx context.Context, address string, n int) ([]Transfer, error) {
	q := url.Values{}
	if e.chainID != 0 {
		q.Set("chainid", strconv.FormatInt(e.chainID, 10))
	}
	q.Set("module", "account")
	q.Set("action", "tokentx")
	q.Set("address", address)
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(n))
	q.Set("sort", "desc")
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer API: HTTP %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("parsing explorer response: %w", err)
	}

	// Non-success: result may be a plain error string, not an array.
	if env.Status != "1" {
		if strings.HasPrefix(strings.ToLower(env.Message), "no transactions found") {
			return []Transfer{}, nil
		}
		var msg string
		if err := json.Unmarshal(env.Result, &msg); err == nil && msg != "" {
			return nil, fmt.Errorf("explorer API: %s", msg)
		}
		return nil, fmt.Errorf("explorer API: %s", env.Message)
	}

	var raw []rawTransfer
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		return nil, fmt.Errorf("parsing explorer transfer list: %w", err)
	}

	out := make([]Transfer, 0, len(raw))
	for _, r := range raw {
		t := Transfer{
			Hash:     r.Hash,
			From:     r.From,
			To:       r.To,
			Contract: r.ContractAddress,
			Symbol:   r.TokenSymbol,
			Value:    new(big.Int),
		}
		// Explorer numeric fields are decimal strings.
		if v, ok := new(big.Int).SetString(r.Value, 10); ok {
			t.Value = v
		}
		t.Block, _ = strconv.ParseUint(r.BlockNumber, 10, 64)
		t.GasUsed, _ = strconv.ParseUint(r.GasUsed, 10, 64)
		if d, err := strconv.ParseUint(r.TokenDecimal, 10, 8); err == nil {
			t.Decimals = uint8(d)
		}
		if ts, err := strconv.ParseInt(r.TimeStamp, 10, 64); err == nil {
			t.Time = time.Unix(ts, 0).UTC()
		}
		out = append(out, t)
	}
	return out, nil
}
