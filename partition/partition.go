// Package partition provides the ordered, durable key-value index backing
// the frame store.
//
// BadgerDB is the storage engine: a log-structured embedded KV whose
// iteration order over binary keys gives the total frame order for free.
// The partition stores serialized frame records only, never payload bytes.
package partition

import (
	"bytes"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/strandhq/strand/log"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("key not found")

// ErrClosed indicates the partition has been closed.
var ErrClosed = errors.New("partition closed")

// Config holds configuration for a partition instance.
type Config struct {
	// Path is the directory for the badger files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives badger's internal logging.
	// If nil, badger logging is disabled.
	Logger *log.Logger
}

// DefaultConfig returns production defaults: durable, synchronous writes.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests: no disk I/O.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts the runtime logger to badger's Logger interface.
type badgerLogger struct {
	sugar *log.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.sugar.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.sugar.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.sugar.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.sugar.Debugf(format, args...) }

// Partition is an ordered durable KV store plus a commit watcher used by
// follow-mode readers.
type Partition struct {
	db *badger.DB

	// mu guards watch and closed.
	mu     sync.Mutex
	watch  chan struct{}
	closed bool
}

// Open opens (or creates) a partition.
func Open(cfg Config) (*Partition, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{sugar: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Partition{db: db, watch: make(chan struct{})}, nil
}

// Close closes the underlying database and wakes any blocked watchers.
// Idempotent.
func (p *Partition) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.watch)
	p.mu.Unlock()

	return p.db.Close()
}

// Put writes a key-value pair and signals the commit watcher.
func (p *Partition) Put(key, value []byte) error {
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return err
	}
	p.signal()
	return nil
}

// Get returns the value for a key, or ErrNotFound.
func (p *Partition) Get(key []byte) ([]byte, error) {
	var value []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Scan iterates entries in key order starting at from (inclusive; nil means
// the first key). When reverse is true, iteration runs newest-first from
// the last key. fn returns false to stop early.
func (p *Partition) Scan(from []byte, reverse bool, fn func(key, value []byte) (bool, error)) error {
	return p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		if from != nil {
			it.Seek(from)
		} else if reverse {
			// Badger's reverse iterator needs a seek key >= every stored
			// key to start at the end.
			it.Seek(bytes.Repeat([]byte{0xff}, 32))
		} else {
			it.Rewind()
		}

		for ; it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			cont, err := fn(item.KeyCopy(nil), value)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// Watch returns a channel closed on the next commit (or on Close).
// Callers re-arm by calling Watch again after a wakeup; this
// close-and-replace broadcast wakes every blocked reader at once.
func (p *Partition) Watch() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watch
}

// Closed reports whether the partition has been closed.
func (p *Partition) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Partition) signal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	close(p.watch)
	p.watch = make(chan struct{})
}
