package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tellsiddh/collections/internal/logger"
)

const (
	// maxConflictRetries bounds how often a conflicting transaction is replayed.
	maxConflictRetries = 5

	// gcDiscardRatio is the share of stale data a value log file needs
	// before it is rewritten.
	gcDiscardRatio = 0.5

	// maxGCRounds caps the files rewritten by one CollectGarbage call.
	maxGCRounds = 10
)

// Options configures the embedded database.
type Options struct {
	Dir      string // data directory, ignored when InMemory
	InMemory bool   // keep everything in RAM (tests)
	Key      string // slot key
}

// Slot stores the serialized collection under one key of an embedded badger DB.
type Slot struct {
	db     *badger.DB
	key    []byte
	logger logger.Logger
}

// Open opens (creating if needed) the database described by opts.
func Open(opts Options, log logger.Logger) (*Slot, error) {
	if opts.Key == "" {
		return nil, errors.New("badger slot key must not be empty")
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger data directory must not be empty")
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{log}).
		WithLoggingLevel(badger.WARNING)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", opts.Dir, err)
	}

	log.Info("badger storage opened",
		logger.String("dir", opts.Dir),
		logger.Bool("in_memory", opts.InMemory))

	return &Slot{
		db:     db,
		key:    []byte(opts.Key),
		logger: log,
	}, nil
}

// Get returns the stored value, nil when the key is absent.
func (s *Slot) Get(_ context.Context) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = read(txn, s.key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return value, nil
}

// Update runs fn inside a read-write transaction, replaying it on conflicts.
func (s *Slot) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			current, err := read(txn, s.key)
			if err != nil {
				return err
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			return txn.Set(s.key, next)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		s.logger.Debug("badger transaction conflict, retrying",
			logger.Int("attempt", attempt))
	}
	return fmt.Errorf("slot update kept conflicting after %d attempts: %w", maxConflictRetries, err)
}

// Ping reports whether the database is still open.
func (s *Slot) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// CollectGarbage rewrites value log files left mostly stale by repeated
// overwrites of the slot. It returns how many files were rewritten.
// In-memory databases have no value log and report zero.
func (s *Slot) CollectGarbage(ctx context.Context) (int, error) {
	rewritten := 0
	for rewritten < maxGCRounds {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}

		err := s.db.RunValueLogGC(gcDiscardRatio)
		switch {
		case err == nil:
			rewritten++
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return rewritten, nil
		case errors.Is(err, badger.ErrRejected):
			// Another GC is already running.
			return rewritten, nil
		default:
			return rewritten, fmt.Errorf("value log gc failed: %w", err)
		}
	}
	return rewritten, nil
}

// Close flushes and closes the database.
func (s *Slot) Close() error {
	return s.db.Close()
}

func read(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// badgerLogger routes badger's own logging through the application logger.
type badgerLogger struct {
	log logger.Logger
}

func (b badgerLogger) Errorf(f string, args ...interface{})   { b.log.Errorf("badger: "+f, args...) }
func (b badgerLogger) Warningf(f string, args ...interface{}) { b.log.Warnf("badger: "+f, args...) }
func (b badgerLogger) Infof(f string, args ...interface{})    { b.log.Debugf("badger: "+f, args...) }
func (b badgerLogger) Debugf(f string, args ...interface{})   { b.log.Debugf("badger: "+f, args...) }
