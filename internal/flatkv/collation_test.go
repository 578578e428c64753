package flatkv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/dirseek"
)

func reverse(a, b []byte) int { return bytes.Compare(b, a) }

func TestCollationDupSort(t *testing.T) {
	col := &Collation{DupSort: true, DCmp: reverse}

	a := DupKey([]byte("k"), []byte("1"))
	b := DupKey([]byte("k"), []byte("2"))
	assert.Equal(t, 1, col.Compare(a, b), "values reversed")
	assert.Equal(t, -1, col.Compare(b, KeyEnd([]byte("k"))))
	assert.Equal(t, -1, col.Compare(KeyStart([]byte("k")), b), "empty value sorts first")
	assert.Equal(t, -1, col.Compare(KeyEnd([]byte("k")), DupKey([]byte("l"), nil)))
	assert.Equal(t, 0, col.Compare(a, a))
}

func TestCollationEmpty(t *testing.T) {
	col := &Collation{Cmp: reverse}
	assert.Equal(t, -1, col.CompareKeys(nil, []byte("a")))
	assert.Equal(t, 1, col.CompareKeys([]byte("a"), nil))
	assert.Equal(t, 0, col.CompareKeys(nil, []byte{}))
	assert.Equal(t, 1, col.CompareKeys([]byte("a"), []byte("b")))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Same(t, defaultCollation, reg.Get(7))
	assert.Equal(t, 0, reg.Len())

	reg.Update(7, func(c Collation) Collation {
		c.Cmp = reverse
		return c
	})
	old := reg.Get(7)
	reg.Update(7, func(c Collation) Collation {
		c.DupSort = true
		return c
	})
	got := reg.Get(7)
	assert.True(t, got.DupSort)
	assert.NotNil(t, got.Cmp)
	assert.False(t, old.DupSort, "published collations are immutable")
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryCompare(t *testing.T) {
	reg := NewRegistry()
	reg.Update(2, func(c Collation) Collation {
		c.Cmp = reverse
		return c
	})

	a := PrefixKey(2, []byte("a"))
	b := PrefixKey(2, []byte("b"))
	assert.Equal(t, 1, reg.Compare(a, b))
	assert.Equal(t, -1, reg.Compare(PrefixKey(1, []byte("z")), a), "prefix first")
	assert.Equal(t, -1, reg.Compare(Prefix(2), b), "bare prefix is the lower bound")
	assert.Equal(t, -1, reg.Compare(a, Prefix(3)))
	assert.Equal(t, -1, reg.Compare(PrefixKey(3, []byte("a")), PrefixKey(3, []byte("b"))), "default order")
}

func TestAbbreviatedKey(t *testing.T) {
	reg := NewRegistry()
	keys := [][]byte{
		Prefix(0),
		PrefixKey(0, []byte("zz")),
		PrefixKey(1, nil),
		PrefixKey(1, []byte{0xFF}),
		PrefixKey(dirseek.DBI(1<<20), []byte("a")),
	}
	for i := 1; i < len(keys); i++ {
		require.Equal(t, -1, reg.Compare(keys[i-1], keys[i]))
		assert.LessOrEqual(t, AbbreviatedKey(keys[i-1]), AbbreviatedKey(keys[i]))
	}
	assert.Less(t, AbbreviatedKey([]byte{0, 0}), AbbreviatedKey([]byte{0, 1}))
}
