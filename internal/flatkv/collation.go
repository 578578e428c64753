package flatkv

import (
	"bytes"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/internal/fastmap"
)

// Collation orders the encoded keys of one collection.
type Collation struct {
	Cmp     dirseek.CmpFunc // nil: byte order
	DCmp    dirseek.CmpFunc // nil: byte order
	DupSort bool
}

var defaultCollation = &Collation{}

// CompareKeys compares two user keys.
func (c *Collation) CompareKeys(a, b []byte) int {
	if r, ok := compareEmpty(a, b); ok {
		return r
	}
	if c.Cmp == nil {
		return bytes.Compare(a, b)
	}
	return c.Cmp(a, b)
}

// CompareValues compares two duplicate values.
func (c *Collation) CompareValues(a, b []byte) int {
	if r, ok := compareEmpty(a, b); ok {
		return r
	}
	if c.DCmp == nil {
		return bytes.Compare(a, b)
	}
	return c.DCmp(a, b)
}

// Compare compares two encoded keys of the collection.
func (c *Collation) Compare(a, b []byte) int {
	if !c.DupSort {
		return c.CompareKeys(a, b)
	}
	if c.Cmp == nil && c.DCmp == nil {
		return bytes.Compare(a, b)
	}
	if r, ok := compareEmpty(a, b); ok {
		return r
	}
	ka, ta, va, okA := Split(a)
	kb, tb, vb, okB := Split(b)
	if !okA || !okB {
		return bytes.Compare(a, b)
	}
	if r := c.CompareKeys(ka, kb); r != 0 {
		return r
	}
	if ta != tb {
		return int(ta) - int(tb)
	}
	if ta != tagValue {
		return 0
	}
	return c.CompareValues(va, vb)
}

// Registry maps collection handles to collations. Reads are lock-free so
// it can back a store comparator called from background goroutines.
type Registry struct {
	mu sync.Mutex
	m  atomic.Pointer[fastmap.Map[*Collation]]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.m.Store(&fastmap.Map[*Collation]{})
	return r
}

// Get returns the collation of dbi, or the byte-order collation.
func (r *Registry) Get(dbi dirseek.DBI) *Collation {
	if c, ok := r.m.Load().Get(uint32(dbi)); ok {
		return c
	}
	return defaultCollation
}

// Update replaces the collation of dbi with fn applied to its current one.
func (r *Registry) Update(dbi dirseek.DBI, fn func(c Collation) Collation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.m.Load()
	old := *defaultCollation
	if c, ok := cur.Get(uint32(dbi)); ok {
		old = *c
	}
	next := fn(old)
	m := cur.Clone()
	m.Set(uint32(dbi), &next)
	r.m.Store(m)
}

// Len returns the number of registered collections.
func (r *Registry) Len() int {
	return r.m.Load().Len()
}

// PrefixLen is the size of the collection prefix in a shared keyspace.
const PrefixLen = 4

// Prefix returns the keyspace prefix of dbi.
func Prefix(dbi dirseek.DBI) []byte {
	var p [PrefixLen]byte
	binary.BigEndian.PutUint32(p[:], uint32(dbi))
	return p[:]
}

// PrefixKey returns key inside dbi's keyspace.
func PrefixKey(dbi dirseek.DBI, key []byte) []byte {
	out := make([]byte, PrefixLen, PrefixLen+len(key))
	binary.BigEndian.PutUint32(out, uint32(dbi))
	return append(out, key...)
}

// Compare orders a keyspace shared by all collections: by prefix, then
// by the collation of the prefix's collection.
func (r *Registry) Compare(a, b []byte) int {
	if len(a) < PrefixLen || len(b) < PrefixLen {
		return bytes.Compare(a, b)
	}
	if c := bytes.Compare(a[:PrefixLen], b[:PrefixLen]); c != 0 {
		return c
	}
	dbi := dirseek.DBI(binary.BigEndian.Uint32(a))
	return r.Get(dbi).Compare(a[PrefixLen:], b[PrefixLen:])
}

// AbbreviatedKey is consistent with Compare: it only carries the prefix.
func AbbreviatedKey(key []byte) uint64 {
	if len(key) < PrefixLen {
		var v uint64
		for _, c := range key {
			v = v<<8 | uint64(c)
		}
		return v << uint(8*(8-len(key)))
	}
	return uint64(binary.BigEndian.Uint32(key)) << 32
}
