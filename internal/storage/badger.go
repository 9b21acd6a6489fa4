package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerKV stores values in an embedded badger database under <dir>/kv.
type BadgerKV struct {
	db *badger.DB
}

// NewBadgerKV opens (or creates) the database.
func NewBadgerKV(dir string, log *zap.Logger) (*BadgerKV, error) {
	opts := badger.DefaultOptions(filepath.Join(dir, "kv")).
		WithLogger(badgerLogger{log.Sugar().Named("badger")}).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get reads the value stored under key.
func (b *BadgerKV) Get(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return string(out), nil
}

// Set replaces the value under key.
func (b *BadgerKV) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (b *BadgerKV) Close() error { return b.db.Close() }

// badgerLogger routes badger's internal logging onto zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, args ...interface{})   { l.s.Errorf(f, args...) }
func (l badgerLogger) Warningf(f string, args ...interface{}) { l.s.Warnf(f, args...) }
func (l badgerLogger) Infof(f string, args ...interface{})    { l.s.Infof(f, args...) }
func (l badgerLogger) Debugf(f string, args ...interface{})   { l.s.Debugf(f, args...) }
