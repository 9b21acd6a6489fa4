package price

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable wraps every failure to obtain a fiat price.
var ErrPriceUnavailable = errors.New("price unavailable")

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Quote is one fiat price readout. Applicable is false for assets that have
// no price key; Value is zero in that case.
type Quote struct {
	Key        string
	Currency   string
	Value      decimal.Decimal
	Applicable bool
}

// Point is one sample of a price history, labelled for display.
type Point struct {
	Label string
	Time  time.Time
	Value decimal.Decimal
}

// Fetcher retrieves token prices from a CoinGecko-compatible API.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another CoinGecko-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// NewFetcher creates a new price fetcher.
func NewFetcher(currency string, opts ...Option) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  DefaultBaseURL,
		currency: strings.ToLower(currency),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Currency returns the fiat currency code prices are quoted in.
func (f *Fetcher) Currency() string { return f.currency }

// GetFiatPrice returns the current price for a CoinGecko id. An empty key
// yields a non-applicable quote without a request.
func (f *Fetcher) GetFiatPrice(ctx context.Context, key string) (Quote, error) {
	q := Quote{Key: key, Currency: f.currency}
	if key == "" {
		return q, nil
	}

	q.Applicable = true
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		f.baseURL, url.QueryEscape(key), url.QueryEscape(f.currency))

	// Response: {"ethereum":{"usd":1234.56}}
	var raw map[string]map[string]json.Number
	if err := f.getJSON(ctx, u, &raw); err != nil {
		return q, err
	}
	n, ok := raw[key][f.currency]
	if !ok {
		return q, fmt.Errorf("%w: no %s price for %s", ErrPriceUnavailable, f.currency, key)
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return q, fmt.Errorf("%w: parsing price %q: %v", ErrPriceUnavailable, n, err)
	}
	q.Value = v
	return q, nil
}

// GetHistory returns daily prices for key over the last days, oldest first.
func (f *Fetcher) GetHistory(ctx context.Context, key string, days int) ([]Point, error) {
	if key == "" {
		return nil, nil
	}
	if days <= 0 {
		days = 7
	}
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		f.baseURL, url.PathEscape(key), url.QueryEscape(f.currency), days)

	// Response: {"prices":[[1714521600000, 3012.55], ...]}
	var raw struct {
		Prices [][2]json.Number `json:"prices"`
	}
	if err := f.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(raw.Prices))
	for _, p := range raw.Prices {
		ms, err := p[0].Int64()
		if err != nil {
			fl, ferr := p[0].Float64()
			if ferr != nil {
				return nil, fmt.Errorf("%w: bad timestamp %q", ErrPriceUnavailable, p[0])
			}
			ms = int64(fl)
		}
		v, err := decimal.NewFromString(p[1].String())
		if err != nil {
			return nil, fmt.Errorf("%w: bad price %q", ErrPriceUnavailable, p[1])
		}
		ts := time.UnixMilli(ms)
		points = append(points, Point{
			Label: ts.Format("Jan 2"),
			Time:  ts,
			Value: v.Round(2),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (f *Fetcher) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetching prices: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading price response: %v", ErrPriceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrPriceUnavailable, resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: parsing price response: %v", ErrPriceUnavailable, err)
	}
	return nil
}
