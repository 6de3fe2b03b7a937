package swarm

import (
	"bytes"
	"encoding/gob"
	"errors"
	"log/slog"
	"time"

	"github.com/anacrolix/dht/v2/bep44"
	"github.com/dgraph-io/badger/v3"
)

var _ bep44.Store = &ItemStore{}

// ItemStore persists BEP 44 mutable/immutable items for the DHT server in a
// Badger database under the metadata folder, so stored items survive process
// restarts. Entries carry the configured TTL; expiry replaces explicit
// deletion.
type ItemStore struct {
	ttl time.Duration
	db  *badger.DB
}

// badgerLogger routes Badger's internal logging onto slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(f, "args", v)
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(f, "args", v)
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.log.Info(f, "args", v)
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.log.Debug(f, "args", v)
}

// NewItemStore opens (or creates) the item database at path. itemsTTL is the
// lifetime of every stored item.
func NewItemStore(path string, itemsTTL time.Duration) (*ItemStore, error) {
	log := slog.With("component", "item-store")

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{log: log}).
		WithValueLogFileSize(1<<26 - 1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	// Reclaim value-log space left over from earlier runs.
	err = db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		db.Close()
		return nil, err
	}

	return &ItemStore{
		db:  db,
		ttl: itemsTTL,
	}, nil
}

// Put writes an item under its target key with the store TTL.
func (s *ItemStore) Put(i *bep44.Item) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	key := i.Target()
	var value bytes.Buffer

	enc := gob.NewEncoder(&value)
	if err := enc.Encode(i); err != nil {
		return err
	}

	e := badger.NewEntry(key[:], value.Bytes()).WithTTL(s.ttl)
	if err := tx.SetEntry(e); err != nil {
		return err
	}

	return tx.Commit()
}

// Get loads the item stored for a target, or bep44.ErrItemNotFound.
func (s *ItemStore) Get(t bep44.Target) (*bep44.Item, error) {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	dbi, err := tx.Get(t[:])
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, bep44.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	valb, err := dbi.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(valb)
	dec := gob.NewDecoder(buf)
	var i *bep44.Item
	if err := dec.Decode(&i); err != nil {
		return nil, err
	}

	return i, nil
}

// Del is a no-op: entries age out via their TTL instead.
func (s *ItemStore) Del(t bep44.Target) error {
	return nil
}

// Close releases the underlying database.
func (s *ItemStore) Close() error {
	return s.db.Close()
}
