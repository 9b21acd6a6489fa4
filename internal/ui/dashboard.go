package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/submit"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/wallet"
)

// Reader performs the dashboard's network reads.
type Reader interface {
	Connect(ctx context.Context) (string, error)
	FetchBalance(ctx context.Context, r session.Refresh) session.BalanceResult
	FetchPrices(ctx context.Context, r session.Refresh) session.PriceResult
}

// Writer validates and submits token operations.
type Writer interface {
	Validate(account string, d token.Descriptor, req submit.Request) (submit.Plan, error)
	Submit(ctx context.Context, account string, d token.Descriptor, req submit.Request) (submit.Result, error)
}

// History lists ledger entries newest first.
type History interface {
	All() []ledger.Entry
}

const (
	noticeTTL   = 4 * time.Second
	historyRows = 8
)

type (
	connectedMsg struct {
		account string
		err     error
	}
	accountsMsg struct {
		accounts []string
		err      error
	}
	balanceMsg   session.BalanceResult
	pricesMsg    session.PriceResult
	submittedMsg struct {
		plan submit.Plan
		res  submit.Result
		err  error
	}
	spinMsg struct{}
)

// Dashboard is the Bubble Tea model for the token dashboard. The session is
// only touched from Update; network calls run in commands and report back
// as messages.
type Dashboard struct {
	sess    *session.Session
	reader  Reader
	writer  Writer
	history History

	network     string
	txURL       func(hash string) string
	open        func(url string) error
	copy        func(text string) error
	now         func() time.Time
	timeout     time.Duration
	autoConnect bool
	accounts    func(ctx context.Context) ([]string, error)
	log         *zap.Logger

	entries     []ledger.Entry
	cursor      int
	form        *opForm
	review      *submit.Plan
	approval    []string
	pending     *submit.Plan
	connecting  bool
	notice      string
	noticeUntil time.Time
	alert       string
	frame       int
	quitting    bool
}

// DashboardOption configures a Dashboard.
type DashboardOption func(*Dashboard)

// WithNetwork sets the network label in the header.
func WithNetwork(name string) DashboardOption {
	return func(m *Dashboard) { m.network = name }
}

// WithTxURL sets the explorer link builder for ledger entries.
func WithTxURL(fn func(hash string) string) DashboardOption {
	return func(m *Dashboard) { m.txURL = fn }
}

// WithReadTimeout bounds each balance and price read.
func WithReadTimeout(d time.Duration) DashboardOption {
	return func(m *Dashboard) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithAutoConnect connects the wallet on start.
func WithAutoConnect(on bool) DashboardOption {
	return func(m *Dashboard) { m.autoConnect = on }
}

// WithConnectApproval makes connecting list the accounts with fn first and
// ask before exposing them.
func WithConnectApproval(fn func(ctx context.Context) ([]string, error)) DashboardOption {
	return func(m *Dashboard) { m.accounts = fn }
}

// WithSystem replaces the browser and clipboard hooks.
func WithSystem(openFn, copyFn func(string) error) DashboardOption {
	return func(m *Dashboard) {
		m.open = openFn
		m.copy = copyFn
	}
}

// WithDashboardClock sets the time source for notice expiry.
func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(m *Dashboard) { m.now = now }
}

// WithDashboardLogger sets the logger.
func WithDashboardLogger(l *zap.Logger) DashboardOption {
	return func(m *Dashboard) {
		if l != nil {
			m.log = l
		}
	}
}

// NewDashboard builds the dashboard model over sess.
func NewDashboard(sess *session.Session, r Reader, w Writer, h History, opts ...DashboardOption) Dashboard {
	m := Dashboard{
		sess:    sess,
		reader:  r,
		writer:  w,
		history: h,
		network: "Sepolia",
		txURL:   func(hash string) string { return "https://sepolia.etherscan.io/tx/" + hash },
		open:    OpenBrowser,
		copy:    CopyToClipboard,
		now:     time.Now,
		timeout: 15 * time.Second,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(&m)
	}
	m.entries = h.All()
	return m
}

// RunDashboard runs m full-screen until the user quits.
func RunDashboard(m Dashboard) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{spin(), m.fetchPrices(m.sess.PriceRefresh())}
	if m.autoConnect {
		cmds = append(cmds, m.startConnect())
	}
	return tea.Batch(cmds...)
}

func spin() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinMsg:
		m.frame++
		if m.notice != "" && m.now().After(m.noticeUntil) {
			m.notice = ""
		}
		return m, spin()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case accountsMsg:
		if msg.err != nil {
			m.connecting = false
			m.setNotice(connectNotice(msg.err))
			return m, nil
		}
		m.approval = msg.accounts
		return m, nil

	case connectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.setNotice(connectNotice(msg.err))
			return m, nil
		}
		r, ok := m.sess.SetAccount(msg.account)
		if !ok {
			return m, nil
		}
		m.setNotice("Connected " + TruncateAddr(msg.account))
		return m, m.refresh(r)

	case balanceMsg:
		if !m.sess.ApplyBalance(session.BalanceResult(msg)) {
			m.log.Debug("stale balance discarded", zap.Uint64("gen", msg.Gen), zap.String("token", msg.Token.Symbol))
		} else if msg.Err != nil {
			m.setNotice("Balance read failed: " + trimErr(msg.Err.Error()))
		}

	case pricesMsg:
		if !m.sess.ApplyPrices(session.PriceResult(msg)) {
			m.log.Debug("stale prices discarded", zap.Uint64("gen", msg.Gen), zap.String("token", msg.Refresh.Token.Symbol))
		}

	case submittedMsg:
		m.pending = nil
		if msg.err != nil {
			m.alert = fmt.Sprintf("%s failed: %v", msg.plan.Kind, msg.err)
			return m, nil
		}
		m.entries = m.history.All()
		m.cursor = 0
		m.setNotice(fmt.Sprintf("%s of %s %s confirmed (%s)", msg.plan.Kind, msg.plan.Display, msg.plan.Token.Symbol, TruncateAddr(msg.res.Entry.TxHash)))
		if msg.res.PersistErr != nil {
			m.alert = "Transaction confirmed but history was not saved: " + msg.res.PersistErr.Error()
		}
		if r, ok := m.sess.BalanceRefresh(); ok {
			return m, m.fetchBalance(r)
		}
	}
	return m, nil
}

func (m Dashboard) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	// A write failure blocks the screen until acknowledged.
	if m.alert != "" {
		switch k.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			m.alert = ""
		}
		return m, nil
	}

	if m.approval != nil {
		switch k.String() {
		case "y", "enter":
			m.approval = nil
			return m, m.connect()
		case "n", "esc":
			m.approval = nil
			m.connecting = false
			m.log.Info("wallet connection rejected")
			m.setNotice(connectNotice(wallet.ErrConnectionRejected))
		}
		return m, nil
	}

	if m.review != nil {
		switch k.String() {
		case "y", "enter":
			plan := *m.review
			m.review = nil
			m.pending = &plan
			return m, m.submit(plan)
		case "n", "esc":
			m.review = nil
			m.setNotice("Cancelled")
		}
		return m, nil
	}

	if m.form != nil {
		switch m.form.update(k) {
		case formCancel:
			m.form = nil
		case formSubmit:
			plan, err := m.writer.Validate(m.sess.Account(), m.sess.Selected(), m.form.request())
			if err != nil {
				m.form.err = err.Error()
				return m, nil
			}
			m.form = nil
			m.review = &plan
		}
		return m, nil
	}

	switch k.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "c":
		if m.connecting {
			return m, nil
		}
		m.connecting = true
		return m, m.startConnect()
	case "left", "[", "h":
		cmd := m.selectToken(-1)
		return m, cmd
	case "right", "]", "l":
		cmd := m.selectToken(1)
		return m, cmd
	case "t":
		m.openForm(ledger.Transfer)
	case "m":
		m.openForm(ledger.Mint)
	case "b":
		m.openForm(ledger.Burn)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "o":
		if e, ok := m.selectedEntry(); ok {
			if err := m.open(m.txURL(e.TxHash)); err != nil {
				m.setNotice("Could not open browser: " + trimErr(err.Error()))
			} else {
				m.setNotice("Opening " + TruncateAddr(e.TxHash) + " in browser")
			}
		}
	case "y":
		if e, ok := m.selectedEntry(); ok {
			if err := m.copy(e.TxHash); err != nil {
				m.setNotice("Copy failed: " + trimErr(err.Error()))
			} else {
				m.setNotice("Copied " + TruncateAddr(e.TxHash))
			}
		}
	case "r":
		cmds := []tea.Cmd{m.fetchPrices(m.sess.PriceRefresh())}
		if r, ok := m.sess.BalanceRefresh(); ok {
			cmds = append(cmds, m.fetchBalance(r))
		}
		m.entries = m.history.All()
		if m.cursor >= len(m.entries) {
			m.cursor = 0
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *Dashboard) openForm(kind ledger.Kind) {
	switch {
	case !m.sess.Connected():
		m.setNotice("Connect a wallet first (c)")
	case m.pending != nil:
		m.setNotice("Waiting for the pending transaction")
	case kind == ledger.Mint && !m.sess.Registry().Mintable(m.sess.Selected().Symbol):
		m.setNotice(fmt.Sprintf("Only %s can be minted", m.sess.Registry().MintableSymbol()))
	default:
		m.form = newOpForm(kind, m.sess.Selected().Symbol)
	}
}

func (m *Dashboard) selectToken(step int) tea.Cmd {
	next := m.sess.Registry().Next(m.sess.Selected().Symbol, step)
	r, ok, err := m.sess.SelectToken(next.Symbol)
	if err != nil {
		m.setNotice(err.Error())
		return nil
	}
	if ok {
		return m.refresh(r)
	}
	return m.fetchPrices(m.sess.Current())
}

func (m Dashboard) selectedEntry() (ledger.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return ledger.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Dashboard) setNotice(s string) {
	m.notice = s
	m.noticeUntil = m.now().Add(noticeTTL)
}

func connectNotice(err error) string {
	switch {
	case errors.Is(err, wallet.ErrConnectionRejected):
		return "Connection rejected"
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return "No wallet available: add one with `neondash wallet add`"
	default:
		return "Connect failed: " + trimErr(err.Error())
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// startConnect connects directly, or lists the accounts for approval when
// an approval source is set.
func (m Dashboard) startConnect() tea.Cmd {
	if m.accounts == nil {
		return m.connect()
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		accounts, err := m.accounts(ctx)
		return accountsMsg{accounts: accounts, err: err}
	}
}

func (m Dashboard) connect() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		account, err := m.reader.Connect(ctx)
		return connectedMsg{account: account, err: err}
	}
}

func (m Dashboard) refresh(r session.Refresh) tea.Cmd {
	return tea.Batch(m.fetchBalance(r), m.fetchPrices(r))
}

func (m Dashboard) fetchBalance(r session.Refresh) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return balanceMsg(m.reader.FetchBalance(ctx, r))
	}
}

func (m Dashboard) fetchPrices(r session.Refresh) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return pricesMsg(m.reader.FetchPrices(ctx, r))
	}
}

func (m Dashboard) submit(p submit.Plan) tea.Cmd {
	account := m.sess.Account()
	d := m.sess.Selected()
	req := submit.Request{Kind: p.Kind, Recipient: p.To.Hex(), Amount: p.Display}
	return func() tea.Msg {
		res, err := m.writer.Submit(context.Background(), account, d, req)
		return submittedMsg{plan: p, res: res, err: err}
	}
}
