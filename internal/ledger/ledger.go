// Package ledger keeps the newest-first record of confirmed operations and
// persists it to the local key-value store.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/storage"
)

// ErrPersistenceUnavailable is returned when the store cannot be read or
// written. The ledger keeps working in memory after it is returned.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// DefaultKey is the storage key the ledger lives under.
const DefaultKey = "txHistory"

// TimeLayout is the format of Entry.Timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Kind is the operation type recorded in an entry.
type Kind string

const (
	Transfer Kind = "Transfer"
	Mint     Kind = "Mint"
	Burn     Kind = "Burn"
)

// ParseKind maps a user-facing name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "transfer", "Transfer":
		return Transfer, nil
	case "mint", "Mint":
		return Mint, nil
	case "burn", "Burn":
		return Burn, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Entry is one confirmed operation.
type Entry struct {
	Kind      Kind   `json:"type"`
	Amount    string `json:"amount"`
	To        string `json:"to"`
	TxHash    string `json:"txHash"`
	GasUsed   string `json:"gasUsed"`
	Timestamp string `json:"timestamp"`
}

// Stamp formats t the way entries record completion time.
func Stamp(t time.Time) string { return t.Local().Format(TimeLayout) }

// Ledger is an ordered, newest-first list of entries backed by a KV store.
type Ledger struct {
	mu       sync.RWMutex
	kv       storage.KV
	key      string
	max      int
	entries  []Entry
	degraded bool
	log      *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithMaxEntries caps retention; 0 keeps everything.
func WithMaxEntries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithLogger sets the logger used for load warnings.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns an empty ledger over kv. A nil kv yields an in-memory ledger.
func New(kv storage.KV, opts ...Option) *Ledger {
	l := &Ledger{kv: kv, key: DefaultKey, log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	if kv == nil {
		l.degraded = true
	}
	return l
}

// Load replaces the in-memory entries with the persisted sequence.
// A missing key or an unreadable value starts an empty ledger.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	if l.kv == nil {
		return nil
	}
	raw, err := l.kv.Get(l.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		l.degraded = true
		l.log.Warn("ledger load failed, continuing in memory", zap.String("key", l.key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		l.log.Warn("ledger value unparseable, starting empty", zap.String("key", l.key), zap.Error(err))
		return nil
	}
	l.entries = entries
	l.trim()
	return nil
}

// Append records e as the newest entry and persists the full sequence.
// On a persist failure the entry is kept and the ledger stops writing.
func (l *Ledger) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]Entry{e}, l.entries...)
	l.trim()
	return l.persistLocked()
}

// Persist writes the current sequence to the store.
func (l *Ledger) Persist() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked()
}

func (l *Ledger) persistLocked() error {
	if l.degraded {
		return ErrPersistenceUnavailable
	}
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := l.kv.Set(l.key, string(data)); err != nil {
		l.degraded = true
		l.log.Warn("ledger persist failed, continuing in memory", zap.String("key", l.key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return nil
}

func (l *Ledger) trim() {
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// All returns a copy of the entries, newest first.
func (l *Ledger) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Degraded reports whether the ledger has given up on persistence.
func (l *Ledger) Degraded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.degraded
}
