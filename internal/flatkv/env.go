package flatkv

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/compare"
)

// Store begins transactions on a flat ordered store.
type Store interface {
	Begin(readOnly bool) (Backend, error)
	Close() error
}

// Env implements dirseek.Env over a Store.
type Env struct {
	cat    *Catalog
	s      Store
	log    zerolog.Logger
	closed atomic.Bool
}

var _ dirseek.Env = (*Env)(nil)

// Declare registers tables with cat ahead of opening the store.
func Declare(cat *Catalog, tables []dirseek.Table) error {
	for _, t := range tables {
		dcmp := t.DupCompare
		if dcmp == nil && t.DupSortPrefix != 0 {
			cmp, err := compare.ByWidth(t.DupSortPrefix)
			if err != nil {
				return dirseek.WrapError(dirseek.ErrIncompatible, err)
			}
			dcmp = cmp
		}
		cat.Declare(t.Name, t.Flags, t.Compare, dcmp)
	}
	return nil
}

// NewEnv loads the catalog of s and persists the declared collections it
// does not hold yet.
func NewEnv(cat *Catalog, s Store, log zerolog.Logger) (*Env, error) {
	e := &Env{cat: cat, s: s, log: log}
	if err := e.loadCatalog(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Env) loadCatalog() error {
	b, err := e.s.Begin(true)
	if err != nil {
		return storeErr(err)
	}
	it, err := b.NewIterator(CatalogDBI)
	if err != nil {
		b.Abort()
		return storeErr(err)
	}
	err = e.cat.Load(it)
	b.Abort()
	if err != nil {
		return err
	}

	pending := e.cat.Unstored()
	if len(pending) == 0 {
		return nil
	}
	w, err := e.s.Begin(false)
	if err != nil {
		return storeErr(err)
	}
	for _, ent := range pending {
		if err := e.cat.Store(w, ent); err != nil {
			w.Abort()
			return storeErr(err)
		}
	}
	if err := w.Commit(); err != nil {
		return storeErr(err)
	}
	e.log.Debug().Int("collections", len(pending)).Msg("declared collections stored")
	return nil
}

// Catalog returns the catalog of the environment.
func (e *Env) Catalog() *Catalog { return e.cat }

func (e *Env) BeginTxn(flags uint) (dirseek.Txn, error) {
	if e.closed.Load() {
		return nil, dirseek.NewError(dirseek.ErrBadTxn)
	}
	readOnly := flags&dirseek.TxnReadOnly != 0
	b, err := e.s.Begin(readOnly)
	if err != nil {
		return nil, storeErr(err)
	}
	return NewTxn(e.cat, b, readOnly), nil
}

func (e *Env) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.s.Close()
}
