// Package session holds the dashboard's view state: the connected account,
// the selected token, and the balance and price readouts for that pair.
//
// Every change of account or token bumps a generation number. Fetches are
// issued with a Refresh ticket carrying that generation, and results are
// only applied while the generation still matches, so a slow response for a
// previous selection can never overwrite the current one. Balance re-reads of
// the same pair also carry a read number, and only the newest read applies.
package session

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/neondash/internal/price"
	"github.com/Mohsinsiddi/neondash/internal/token"
)

// Status of a single readout.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Error
	NotApplicable
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	case NotApplicable:
		return "n/a"
	default:
		return "idle"
	}
}

// Refresh is a ticket for one fetch of the (account, token) pair.
type Refresh struct {
	Gen     uint64
	Read    uint64
	Account string
	Token   token.Descriptor
}

// Balance is the token balance of the connected account.
type Balance struct {
	Account string
	Symbol  string
	Amount  string
	Status  Status
	Notice  string
}

// Readout is one fiat price.
type Readout struct {
	Value  decimal.Decimal
	Status Status
	Err    string
}

// Prices holds the fiat readouts for the selected token and the base asset.
type Prices struct {
	Currency      string
	Token         Readout
	Base          Readout
	History       []price.Point
	HistoryStatus Status
	HistoryErr    string
}

// BalanceResult is the outcome of a balance fetch for a ticket.
type BalanceResult struct {
	Refresh
	Amount string
	Err    error
}

// PriceResult is the outcome of a price fetch for a ticket.
type PriceResult struct {
	Refresh
	Currency   string
	Token      price.Quote
	TokenErr   error
	Base       price.Quote
	BaseErr    error
	History    []price.Point
	HistoryErr error
}

// Session is mutated from a single goroutine (the UI loop or a command).
type Session struct {
	reg      *token.Registry
	account  string
	selected token.Descriptor
	gen      uint64
	read     uint64
	balance  Balance
	prices   Prices
}

// New starts a disconnected session on the registry's default token.
func New(reg *token.Registry) *Session {
	s := &Session{reg: reg, selected: reg.Default()}
	s.balance = Balance{Symbol: s.selected.Symbol}
	return s
}

func (s *Session) Account() string            { return s.account }
func (s *Session) Connected() bool            { return s.account != "" }
func (s *Session) Selected() token.Descriptor { return s.selected }
func (s *Session) Gen() uint64                { return s.gen }
func (s *Session) Balance() Balance           { return s.balance }
func (s *Session) Registry() *token.Registry  { return s.reg }

// Prices returns a copy of the price readouts.
func (s *Session) Prices() Prices {
	p := s.prices
	p.History = append([]price.Point(nil), s.prices.History...)
	return p
}

// Current returns a ticket for the current generation.
func (s *Session) Current() Refresh {
	return Refresh{Gen: s.gen, Read: s.read, Account: s.account, Token: s.selected}
}

// SetAccount switches to account and returns the refresh for the new pair.
// An empty address is ignored.
func (s *Session) SetAccount(account string) (Refresh, bool) {
	account = strings.TrimSpace(account)
	if account == "" {
		return Refresh{}, false
	}
	s.account = account
	s.advance()
	return s.Current(), true
}

// SelectToken switches the selected token. The refresh is only issued when
// an account is connected.
func (s *Session) SelectToken(symbol string) (Refresh, bool, error) {
	d, err := s.reg.Get(symbol)
	if err != nil {
		return Refresh{}, false, err
	}
	s.selected = d
	s.advance()
	if !s.Connected() {
		return Refresh{}, false, nil
	}
	return s.Current(), true, nil
}

// BalanceRefresh returns a ticket for re-reading the current pair. Prices in
// flight stay valid; balance reads issued earlier for the pair are superseded.
func (s *Session) BalanceRefresh() (Refresh, bool) {
	if !s.Connected() {
		return Refresh{}, false
	}
	s.read++
	if s.balance.Amount == "" {
		s.balance.Status = Loading
	}
	return s.Current(), true
}

// PriceRefresh returns a ticket for re-reading prices of the selected token.
// Readouts that never loaded switch to Loading; shown values stay until the
// result arrives.
func (s *Session) PriceRefresh() Refresh {
	if s.prices.HistoryStatus == Idle {
		s.resetPrices()
	}
	return s.Current()
}

func (s *Session) advance() {
	s.gen++
	s.balance = Balance{Account: s.account, Symbol: s.selected.Symbol}
	if s.account != "" {
		s.balance.Status = Loading
	}
	s.resetPrices()
}

func (s *Session) resetPrices() {
	s.prices = Prices{
		Currency:      s.prices.Currency,
		Token:         Readout{Status: Loading},
		Base:          Readout{Status: Loading},
		HistoryStatus: Loading,
	}
	if !s.selected.HasPrice() {
		s.prices.Token.Status = NotApplicable
	}
}

func (s *Session) matches(r Refresh) bool {
	return r.Gen == s.gen && strings.EqualFold(r.Token.Symbol, s.selected.Symbol)
}

// ApplyBalance stores r if it belongs to the current pair. A failed read
// keeps the amount already shown for the pair and records a notice.
func (s *Session) ApplyBalance(r BalanceResult) bool {
	if !s.matches(r.Refresh) || r.Read != s.read || !strings.EqualFold(r.Account, s.account) || s.account == "" {
		return false
	}
	if r.Err != nil {
		s.balance.Notice = r.Err.Error()
		if s.balance.Amount == "" {
			s.balance.Status = Error
		}
		return true
	}
	s.balance.Amount = r.Amount
	s.balance.Status = Ready
	s.balance.Notice = ""
	return true
}

// ApplyPrices stores r if it belongs to the current token. A failed readout
// is cleared, never left showing an older value.
func (s *Session) ApplyPrices(r PriceResult) bool {
	if !s.matches(r.Refresh) {
		return false
	}
	if r.Currency != "" {
		s.prices.Currency = r.Currency
	}
	s.prices.Token = readout(r.Token, r.TokenErr)
	s.prices.Base = readout(r.Base, r.BaseErr)
	if r.HistoryErr != nil {
		s.prices.History = nil
		s.prices.HistoryStatus = Error
		s.prices.HistoryErr = r.HistoryErr.Error()
	} else {
		s.prices.History = r.History
		s.prices.HistoryStatus = Ready
		s.prices.HistoryErr = ""
	}
	return true
}

func readout(q price.Quote, err error) Readout {
	switch {
	case err != nil:
		return Readout{Status: Error, Err: err.Error()}
	case !q.Applicable:
		return Readout{Status: NotApplicable}
	default:
		return Readout{Value: q.Value, Status: Ready}
	}
}
