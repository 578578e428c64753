// Package boltstore stores dirseek collections in a bbolt file, one bucket
// per collection. bbolt orders keys bytewise, so collections keep the
// default comparators.
package boltstore

import (
	"bytes"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/internal/flatkv"
)

// Options configures Open.
type Options struct {
	Tables  []dirseek.Table
	NoSync  bool
	Timeout time.Duration
	// InitialMmapSize defaults to 64 MiB. A read transaction held across
	// a write in the same goroutine blocks if the writer has to remap.
	InitialMmapSize int
	Logger          *zerolog.Logger
}

type store struct {
	db *bolt.DB
}

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*flatkv.Env, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("store", "bolt").Logger()
	}
	for _, t := range opts.Tables {
		if t.Compare != nil || t.DupCompare != nil || t.DupSortPrefix != 0 {
			return nil, dirseek.NewError(dirseek.ErrIncompatible)
		}
	}

	reg := flatkv.NewRegistry()
	cat := flatkv.NewCatalog(reg, false, log)
	if err := flatkv.Declare(cat, opts.Tables); err != nil {
		return nil, err
	}

	mmap := opts.InitialMmapSize
	if mmap == 0 {
		mmap = 64 << 20
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{
		Timeout:         opts.Timeout,
		NoSync:          opts.NoSync,
		NoFreelistSync:  true,
		InitialMmapSize: mmap,
	})
	if err != nil {
		return nil, dirseek.WrapError(dirseek.ErrInvalid, err)
	}
	log.Info().Str("path", path).Msg("bolt store opened")

	env, err := flatkv.NewEnv(cat, &store{db: db}, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return env, nil
}

func (s *store) Begin(readOnly bool) (flatkv.Backend, error) {
	tx, err := s.db.Begin(!readOnly)
	if err != nil {
		return nil, err
	}
	return &txn{s: s, tx: tx}, nil
}

func (s *store) Close() error { return s.db.Close() }

func bucketName(dbi dirseek.DBI) []byte {
	return flatkv.Prefix(dbi)
}

type txn struct {
	s  *store
	tx *bolt.Tx
}

func (t *txn) bucket(dbi dirseek.DBI) *bolt.Bucket {
	if t.tx == nil {
		return nil
	}
	return t.tx.Bucket(bucketName(dbi))
}

func (t *txn) NewIterator(dbi dirseek.DBI) (flatkv.Iterator, error) {
	b := t.bucket(dbi)
	if b == nil {
		return &iterator{}, nil
	}
	return &iterator{c: b.Cursor()}, nil
}

// Get looks the key up with a cursor: bbolt's Bucket.Get cannot tell an
// empty value from a missing key.
func (t *txn) Get(dbi dirseek.DBI, key []byte) ([]byte, bool, error) {
	b := t.bucket(dbi)
	if b == nil {
		return nil, false, nil
	}
	k, v := b.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (t *txn) Set(dbi dirseek.DBI, key, val []byte) error {
	b, err := t.tx.CreateBucketIfNotExists(bucketName(dbi))
	if err != nil {
		return err
	}
	if val == nil {
		val = []byte{}
	}
	return b.Put(key, val)
}

func (t *txn) Delete(dbi dirseek.DBI, key []byte) error {
	b := t.bucket(dbi)
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

func (t *txn) Reset() {
	if t.tx != nil {
		t.tx.Rollback()
		t.tx = nil
	}
}

func (t *txn) Renew() error {
	tx, err := t.s.db.Begin(false)
	if err != nil {
		return err
	}
	t.tx = tx
	return nil
}

func (t *txn) Commit() error {
	if t.tx == nil {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	tx := t.tx
	t.tx = nil
	if !tx.Writable() {
		return tx.Rollback()
	}
	return tx.Commit()
}

func (t *txn) Abort() { t.Reset() }

// iterator adapts a bbolt cursor. A nil cursor is an empty collection.
type iterator struct {
	c    *bolt.Cursor
	k, v []byte
}

func (i *iterator) at(k, v []byte) bool {
	i.k, i.v = k, v
	return k != nil
}

func (i *iterator) First() bool {
	if i.c == nil {
		return false
	}
	return i.at(i.c.First())
}

func (i *iterator) Last() bool {
	if i.c == nil {
		return false
	}
	return i.at(i.c.Last())
}

func (i *iterator) SeekGE(key []byte) bool {
	if i.c == nil {
		return false
	}
	return i.at(i.c.Seek(key))
}

func (i *iterator) Next() bool    { return i.at(i.c.Next()) }
func (i *iterator) Prev() bool    { return i.at(i.c.Prev()) }
func (i *iterator) Key() []byte   { return i.k }
func (i *iterator) Value() []byte { return i.v }
func (i *iterator) Error() error  { return nil }
func (i *iterator) Close() error  { return nil }
