package mdbxstore

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/memstore"
)

// The flat stores emulate MDBX dupsort cursors. These tests replay the
// same operations against libmdbx and memstore and compare the results.
// Scripts never step from a failed position: where the cursor sits after
// NotFound is left to the store.

type pair struct{ env, mem dirseek.Env }

func openPair(t *testing.T, flags uint, data [][2][]byte) (pair, dirseek.DBI, dirseek.DBI) {
	t.Helper()
	table := dirseek.Table{Name: "t", TableConfig: dirseek.TableConfig{Flags: flags}}

	env, err := Open(filepath.Join(t.TempDir(), "mdbx.db"), Options{MapSize: 64 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	mem, err := memstore.Open(memstore.Options{Tables: []dirseek.Table{table}})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	var dbis [2]dirseek.DBI
	for i, e := range []dirseek.Env{env, mem} {
		dbis[i], err = dirseek.OpenTable(e, table.Name, table.TableConfig)
		require.NoError(t, err)
		require.NoError(t, dirseek.Update(e, func(txn dirseek.Txn) error {
			for _, kv := range data {
				if err := txn.Put(dbis[i], kv[0], kv[1], 0); err != nil {
					return err
				}
			}
			return nil
		}))
	}
	return pair{env, mem}, dbis[0], dbis[1]
}

func outcome(k, v []byte, err error) string {
	if dirseek.IsNotFound(err) {
		return "notfound"
	}
	if err != nil {
		return "error " + fmt.Sprint(dirseek.Code(err))
	}
	return fmt.Sprintf("%q=%q", k, v)
}

type op struct {
	op       uint
	key, val string
}

func replay(t *testing.T, env dirseek.Env, dbi dirseek.DBI, ops []op) []string {
	var out []string
	require.NoError(t, dirseek.View(env, func(txn dirseek.Txn) error {
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer c.Close()
		// libmdbx leaves the key unset on ops that stay within one key
		var cur []byte
		for _, o := range ops {
			var key, val []byte
			if o.key != "" {
				key = []byte(o.key)
			}
			if o.val != "" {
				val = []byte(o.val)
			}
			k, v, err := c.Get(key, val, o.op)
			if err == nil {
				if k == nil {
					k = cur
				}
				cur = append(cur[:0], k...)
			}
			out = append(out, dirseek.OpName(o.op)+" "+outcome(k, v, err))
		}
		return nil
	}))
	return out
}

func kvs(s ...string) [][2][]byte {
	var out [][2][]byte
	for i := 0; i+1 < len(s); i += 2 {
		out = append(out, [2][]byte{[]byte(s[i]), []byte(s[i+1])})
	}
	return out
}

func TestCursorMatchesMdbx(t *testing.T) {
	data := kvs(
		"key", "value1.7",
		"key2", "value1.1",
		"key2", "value1.2",
		"key3", "value1.6",
		"key3", "value3.1",
	)
	p, edbi, mdbi := openPair(t, dirseek.DupSort, data)

	scripts := map[string][]op{
		"walk to the end": {
			{op: dirseek.First}, {op: dirseek.Next}, {op: dirseek.Next}, {op: dirseek.Next},
			{op: dirseek.Next}, {op: dirseek.Next}, {op: dirseek.Last}, {op: dirseek.Prev},
			{op: dirseek.Prev},
		},
		"get both range past last value": {
			{op: dirseek.GetBothRange, key: "key3", val: "value3.2"},
			{op: dirseek.GetBothRange, key: "key3", val: "value1.0"},
			{op: dirseek.GetBothRange, key: "key4", val: "value1.0"},
		},
		"no dup walks": {
			{op: dirseek.First}, {op: dirseek.NextNoDup}, {op: dirseek.NextNoDup},
			{op: dirseek.NextNoDup}, {op: dirseek.Last}, {op: dirseek.PrevNoDup},
			{op: dirseek.PrevNoDup}, {op: dirseek.PrevNoDup},
		},
		"dup walks": {
			{op: dirseek.Set, key: "key2"}, {op: dirseek.LastDup}, {op: dirseek.FirstDup},
			{op: dirseek.NextDup}, {op: dirseek.Set, key: "key3"}, {op: dirseek.PrevDup},
		},
		"seeks": {
			{op: dirseek.Set, key: "key1"}, {op: dirseek.SetRange, key: "key1"},
			{op: dirseek.SetRange, key: "key4"}, {op: dirseek.GetBoth, key: "key2", val: "value1.2"},
			{op: dirseek.GetBoth, key: "key2", val: "value1.3"},
		},
	}
	for name, ops := range scripts {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, replay(t, p.env, edbi, ops), replay(t, p.mem, mdbi, ops))
		})
	}
}

func smallKey(rng *rand.Rand) []byte {
	b := make([]byte, 1+rng.Intn(3))
	for i := range b {
		b[i] = byte(rng.Intn(4))
	}
	return b
}

func TestFindMatchesMdbx(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	var data [][2][]byte
	for i := 0; i < 120; i++ {
		data = append(data, [2][]byte{smallKey(rng), smallKey(rng)})
	}
	lookups := []dirseek.Lookup{dirseek.LT, dirseek.LE, dirseek.EQ, dirseek.GE, dirseek.GT}

	t.Run("plain", func(t *testing.T) {
		p, edbi, mdbi := openPair(t, 0, data)
		er, mr := dirseek.NewReader(p.env, edbi), dirseek.NewReader(p.mem, mdbi)
		defer er.Close()
		defer mr.Close()
		for i := 0; i < 200; i++ {
			s := smallKey(rng)
			for _, dir := range lookups {
				want := outcome(er.Find(dir, s))
				got := outcome(mr.Find(dir, s))
				assert.Equal(t, want, got, "%s %x", dir, s)
			}
		}
	})

	t.Run("dupsort", func(t *testing.T) {
		p, edbi, mdbi := openPair(t, dirseek.DupSort, data)
		er, mr := dirseek.NewReader(p.env, edbi), dirseek.NewReader(p.mem, mdbi)
		defer er.Close()
		defer mr.Close()
		for i := 0; i < 300; i++ {
			k, v := smallKey(rng), smallKey(rng)
			for _, dir := range lookups {
				want := outcome(er.FindDup(dir, k, v))
				got := outcome(mr.FindDup(dir, k, v))
				assert.Equal(t, want, got, "%s %x/%x", dir, k, v)
			}
		}
	})
}
