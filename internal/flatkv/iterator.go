package flatkv

import (
	"bytes"

	"github.com/Giulio2002/dirseek"
)

// Iterator walks the encoded keys of one collection in collation order.
// Key and Value are valid until the next move. Next and Prev are only
// called on a valid iterator.
type Iterator interface {
	First() bool
	Last() bool
	SeekGE(key []byte) bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Raw is the flat key-value surface of one store transaction.
type Raw interface {
	NewIterator(dbi dirseek.DBI) (Iterator, error)
	Get(dbi dirseek.DBI, key []byte) (val []byte, found bool, err error)
	Set(dbi dirseek.DBI, key, val []byte) error
	Delete(dbi dirseek.DBI, key []byte) error
}

// Backend is a store transaction: Raw plus its lifecycle.
type Backend interface {
	Raw
	// Reset releases the snapshot of a read-only transaction.
	Reset()
	// Renew takes a new snapshot after Reset.
	Renew() error
	Commit() error
	Abort()
}

// GlobalIterator walks a keyspace shared by all collections, where every
// key starts with its collection's Prefix. *pebble.Iterator satisfies it.
type GlobalIterator interface {
	SeekGE(key []byte) bool
	SeekLT(key []byte) bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// PrefixIterator confines a GlobalIterator to one collection and strips
// the prefix from its keys.
type PrefixIterator struct {
	g      GlobalIterator
	dbi    dirseek.DBI
	prefix []byte
	upper  []byte
}

// NewPrefixIterator returns an Iterator over dbi's keys in g.
func NewPrefixIterator(g GlobalIterator, dbi dirseek.DBI) *PrefixIterator {
	return &PrefixIterator{
		g:      g,
		dbi:    dbi,
		prefix: Prefix(dbi),
		upper:  Prefix(dbi + 1),
	}
}

func (p *PrefixIterator) in(ok bool) bool {
	return ok && bytes.HasPrefix(p.g.Key(), p.prefix)
}

func (p *PrefixIterator) First() bool { return p.in(p.g.SeekGE(p.prefix)) }
func (p *PrefixIterator) Last() bool  { return p.in(p.g.SeekLT(p.upper)) }
func (p *PrefixIterator) Next() bool  { return p.in(p.g.Next()) }
func (p *PrefixIterator) Prev() bool  { return p.in(p.g.Prev()) }

func (p *PrefixIterator) SeekGE(key []byte) bool {
	return p.in(p.g.SeekGE(PrefixKey(p.dbi, key)))
}

func (p *PrefixIterator) Key() []byte   { return p.g.Key()[PrefixLen:] }
func (p *PrefixIterator) Value() []byte { return p.g.Value() }
func (p *PrefixIterator) Error() error  { return p.g.Error() }
func (p *PrefixIterator) Close() error  { return p.g.Close() }
