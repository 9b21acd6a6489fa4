package price

import (
	"context"
	"strings"
)

// Router answers spot prices from on-chain feeds where one is registered for
// the key and from the HTTP fetcher otherwise. History always comes from HTTP.
type Router struct {
	http  *Fetcher
	feeds map[string]*FeedReader
}

// NewRouter wraps an HTTP fetcher.
func NewRouter(f *Fetcher) *Router {
	return &Router{http: f, feeds: make(map[string]*FeedReader)}
}

// UseFeed routes spot prices for key to feed.
func (r *Router) UseFeed(key string, feed *FeedReader) {
	r.feeds[strings.ToLower(key)] = feed
}

// GetFiatPrice returns the spot price for key.
func (r *Router) GetFiatPrice(ctx context.Context, key string) (Quote, error) {
	feed, ok := r.feeds[strings.ToLower(key)]
	if !ok || key == "" {
		return r.http.GetFiatPrice(ctx, key)
	}
	q := Quote{Key: key, Currency: r.http.Currency(), Applicable: true}
	v, err := feed.Latest(ctx)
	if err != nil {
		return q, err
	}
	q.Value = v
	return q, nil
}

// GetHistory returns the HTTP price history for key.
func (r *Router) GetHistory(ctx context.Context, key string, days int) ([]Point, error) {
	return r.http.GetHistory(ctx, key, days)
}
