package flatkv

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Giulio2002/dirseek"
)

// CatalogDBI holds one entry per named collection.
const CatalogDBI dirseek.DBI = 0

// Entry is the persisted description of a collection.
type Entry struct {
	Name  string
	DBI   dirseek.DBI
	Flags uint
}

func encodeEntry(e Entry) []byte {
	var b [8]byte
	binary.BigEndian.PutUint32(b[:4], uint32(e.DBI))
	binary.BigEndian.PutUint32(b[4:], uint32(e.Flags))
	return b[:]
}

func decodeEntry(name, b []byte) (Entry, error) {
	if len(b) != 8 {
		return Entry{}, dirseek.NewError(dirseek.ErrCorrupted)
	}
	return Entry{
		Name:  string(name),
		DBI:   dirseek.DBI(binary.BigEndian.Uint32(b[:4])),
		Flags: uint(binary.BigEndian.Uint32(b[4:])),
	}, nil
}

// Catalog tracks the named collections of a store and their collations.
type Catalog struct {
	mu     sync.Mutex
	byName map[string]Entry
	byDBI  map[dirseek.DBI]Entry
	next   dirseek.DBI
	// stored holds the names present in the catalog collection.
	stored map[string]bool

	reg *Registry
	// custom is true when the store orders keys through reg, so
	// comparators can be installed.
	custom bool
	log    zerolog.Logger
}

// NewCatalog returns an empty catalog.
func NewCatalog(reg *Registry, custom bool, log zerolog.Logger) *Catalog {
	return &Catalog{
		byName: make(map[string]Entry),
		byDBI:  make(map[dirseek.DBI]Entry),
		stored: make(map[string]bool),
		next:   CatalogDBI + 1,
		reg:    reg,
		custom: custom,
		log:    log,
	}
}

// Registry returns the collation registry.
func (c *Catalog) Registry() *Registry { return c.reg }

// Load reads the persisted entries of the catalog collection.
func (c *Catalog) Load(it Iterator) error {
	defer it.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for ok := it.First(); ok; ok = it.Next() {
		e, err := decodeEntry(it.Key(), it.Value())
		if err != nil {
			return err
		}
		if err := c.conflict(e); err != nil {
			return err
		}
		c.add(e)
		c.stored[e.Name] = true
	}
	if err := it.Error(); err != nil {
		return dirseek.WrapError(dirseek.ErrProblem, err)
	}
	c.log.Debug().Int("collections", len(c.byName)).Msg("catalog loaded")
	return nil
}

// conflict reports a stored entry that disagrees with a declared one.
func (c *Catalog) conflict(e Entry) error {
	if old, ok := c.byName[e.Name]; ok && (old.DBI != e.DBI || old.Flags != e.Flags) {
		return dirseek.WrapError(dirseek.ErrIncompatible,
			fmt.Errorf("collection %q stored as dbi %d flags %#x, declared as dbi %d flags %#x",
				e.Name, e.DBI, e.Flags, old.DBI, old.Flags))
	}
	if old, ok := c.byDBI[e.DBI]; ok && old.Name != e.Name {
		return dirseek.WrapError(dirseek.ErrIncompatible,
			fmt.Errorf("dbi %d stored for %q, declared for %q", e.DBI, e.Name, old.Name))
	}
	return nil
}

// Unstored returns the declared collections missing from the catalog
// collection. The store writes them once after Load.
func (c *Catalog) Unstored() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	for name, e := range c.byName {
		if !c.stored[name] {
			out = append(out, e)
		}
	}
	return out
}

// Store writes e to the catalog collection through raw.
func (c *Catalog) Store(raw Raw, e Entry) error {
	if err := raw.Set(CatalogDBI, []byte(e.Name), encodeEntry(e)); err != nil {
		return err
	}
	c.mu.Lock()
	c.stored[e.Name] = true
	c.mu.Unlock()
	return nil
}

func (c *Catalog) add(e Entry) {
	c.byName[e.Name] = e
	c.byDBI[e.DBI] = e
	if e.DBI >= c.next {
		c.next = e.DBI + 1
	}
	dupsort := e.Flags&dirseek.DupSort != 0
	c.reg.Update(e.DBI, func(col Collation) Collation {
		col.DupSort = dupsort
		return col
	})
}

// Declare registers a collection before the store is opened, so the
// store's comparator knows its collation from the first compaction on.
// Handles are assigned in declaration order, which must not change
// between opens; Load rejects a stored catalog that disagrees.
func (c *Catalog) Declare(name string, flags uint, cmp, dcmp dirseek.CmpFunc) dirseek.DBI {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byName[name]
	if !ok {
		e = Entry{Name: name, DBI: c.next, Flags: flags &^ dirseek.Create}
		c.add(e)
	}
	c.reg.Update(e.DBI, func(col Collation) Collation {
		col.Cmp, col.DCmp = cmp, dcmp
		return col
	})
	return e.DBI
}

// Open returns the handle of a named collection, creating it through raw
// when flags has Create. created reports a new entry.
func (c *Catalog) Open(raw Raw, writable bool, name string, flags uint) (dbi dirseek.DBI, created bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byName[name]; ok {
		if flags&dirseek.Create != 0 && (flags^e.Flags)&dirseek.DupSort != 0 {
			return 0, false, dirseek.NewError(dirseek.ErrIncompatible)
		}
		return e.DBI, false, nil
	}
	if flags&dirseek.Create == 0 {
		return 0, false, dirseek.ErrNotFoundError
	}
	if !writable {
		return 0, false, dirseek.NewError(dirseek.ErrIncompatible)
	}

	e := Entry{Name: name, DBI: c.next, Flags: flags &^ dirseek.Create}
	if err := raw.Set(CatalogDBI, []byte(name), encodeEntry(e)); err != nil {
		return 0, false, err
	}
	c.add(e)
	c.stored[name] = true
	c.log.Info().Str("name", name).Uint32("dbi", uint32(e.DBI)).
		Bool("dupsort", e.Flags&dirseek.DupSort != 0).Msg("collection created")
	return e.DBI, true, nil
}

// Forget drops a collection created by an aborted transaction. Its handle
// is not reused.
func (c *Catalog) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byName[name]
	if !ok {
		return
	}
	delete(c.byName, name)
	delete(c.byDBI, e.DBI)
	delete(c.stored, name)
}

// Lookup returns the entry of dbi.
func (c *Catalog) Lookup(dbi dirseek.DBI) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byDBI[dbi]
	return e, ok
}

// SetCompare installs the key comparator of dbi.
func (c *Catalog) SetCompare(dbi dirseek.DBI, cmp dirseek.CmpFunc) error {
	if err := c.checkCustom(dbi); err != nil {
		return err
	}
	c.reg.Update(dbi, func(col Collation) Collation {
		col.Cmp = cmp
		return col
	})
	return nil
}

// SetDupCompare installs the duplicate comparator of dbi.
func (c *Catalog) SetDupCompare(dbi dirseek.DBI, cmp dirseek.CmpFunc) error {
	if err := c.checkCustom(dbi); err != nil {
		return err
	}
	c.reg.Update(dbi, func(col Collation) Collation {
		col.DCmp = cmp
		return col
	})
	return nil
}

func (c *Catalog) checkCustom(dbi dirseek.DBI) error {
	if !c.custom {
		return dirseek.NewError(dirseek.ErrIncompatible)
	}
	if _, ok := c.Lookup(dbi); !ok {
		return dirseek.NewError(dirseek.ErrBadDBI)
	}
	return nil
}
