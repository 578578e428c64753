package flatkv_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/memstore"
)

type kv struct{ k, v string }

func openMem(t *testing.T, flags uint) (dirseek.Env, dirseek.DBI) {
	t.Helper()
	env, err := memstore.Open(memstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	dbi, err := dirseek.OpenTable(env, "t", dirseek.TableConfig{Flags: flags})
	require.NoError(t, err)
	return env, dbi
}

func fill(t *testing.T, env dirseek.Env, dbi dirseek.DBI, pairs ...kv) {
	t.Helper()
	require.NoError(t, dirseek.Update(env, func(txn dirseek.Txn) error {
		for _, p := range pairs {
			if err := txn.Put(dbi, []byte(p.k), []byte(p.v), 0); err != nil {
				return err
			}
		}
		return nil
	}))
}

func read(t *testing.T, env dirseek.Env, dbi dirseek.DBI, fn func(c dirseek.Cursor)) {
	t.Helper()
	require.NoError(t, dirseek.View(env, func(txn dirseek.Txn) error {
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer c.Close()
		fn(c)
		return nil
	}))
}

func expect(t *testing.T, c dirseek.Cursor, key, val string, op uint, want kv) {
	t.Helper()
	var k, v []byte
	if key != "" {
		k = []byte(key)
	}
	if val != "" {
		v = []byte(val)
	}
	gk, gv, err := c.Get(k, v, op)
	require.NoError(t, err, dirseek.OpName(op))
	assert.Equal(t, want.k, string(gk), dirseek.OpName(op))
	assert.Equal(t, want.v, string(gv), dirseek.OpName(op))
}

func missing(t *testing.T, c dirseek.Cursor, key, val string, op uint) {
	t.Helper()
	var k, v []byte
	if key != "" {
		k = []byte(key)
	}
	if val != "" {
		v = []byte(val)
	}
	_, _, err := c.Get(k, v, op)
	assert.True(t, dirseek.IsNotFound(err), "%s: %v", dirseek.OpName(op), err)
}

func TestPlainCursor(t *testing.T) {
	env, dbi := openMem(t, 0)
	fill(t, env, dbi, kv{"b", "2"}, kv{"d", "4"}, kv{"a", "1"})

	read(t, env, dbi, func(c dirseek.Cursor) {
		missing(t, c, "", "", dirseek.GetCurrent)
		expect(t, c, "", "", dirseek.Next, kv{"a", "1"})
		expect(t, c, "", "", dirseek.Next, kv{"b", "2"})
		expect(t, c, "", "", dirseek.GetCurrent, kv{"b", "2"})
		expect(t, c, "", "", dirseek.Last, kv{"d", "4"})
		missing(t, c, "", "", dirseek.Next)
		expect(t, c, "", "", dirseek.First, kv{"a", "1"})
		missing(t, c, "", "", dirseek.Prev)

		expect(t, c, "c", "", dirseek.SetRange, kv{"d", "4"})
		expect(t, c, "", "", dirseek.Prev, kv{"b", "2"})
		missing(t, c, "e", "", dirseek.SetRange)
		missing(t, c, "c", "", dirseek.Set)
		expect(t, c, "b", "", dirseek.SetKey, kv{"b", "2"})
		expect(t, c, "", "", dirseek.NextNoDup, kv{"d", "4"})

		n, err := c.Count()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		_, _, err = c.Get(nil, nil, dirseek.NextDup)
		assert.Equal(t, dirseek.ErrIncompatible, dirseek.Code(err))
	})
}

func dupFixture(t *testing.T) (dirseek.Env, dirseek.DBI) {
	env, dbi := openMem(t, dirseek.DupSort)
	fill(t, env, dbi,
		kv{"a", "1"},
		kv{"k", "20"}, kv{"k", "10"}, kv{"k", "30"},
		kv{"k\x00", "x"},
		kv{"z", "9"},
	)
	return env, dbi
}

func TestDupCursor(t *testing.T) {
	env, dbi := dupFixture(t)

	read(t, env, dbi, func(c dirseek.Cursor) {
		expect(t, c, "k", "", dirseek.Set, kv{"k", "10"})
		expect(t, c, "", "", dirseek.NextDup, kv{"k", "20"})
		expect(t, c, "", "", dirseek.NextDup, kv{"k", "30"})
		missing(t, c, "", "", dirseek.NextDup)
		expect(t, c, "", "", dirseek.GetCurrent, kv{"k", "30"})
		expect(t, c, "", "", dirseek.PrevDup, kv{"k", "20"})
		expect(t, c, "", "", dirseek.FirstDup, kv{"k", "10"})
		missing(t, c, "", "", dirseek.PrevDup)
		expect(t, c, "", "", dirseek.LastDup, kv{"k", "30"})

		n, err := c.Count()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
		expect(t, c, "", "", dirseek.GetCurrent, kv{"k", "30"})

		expect(t, c, "", "", dirseek.Next, kv{"k\x00", "x"})
		expect(t, c, "", "", dirseek.PrevNoDup, kv{"k", "30"})
		expect(t, c, "", "", dirseek.NextNoDup, kv{"k\x00", "x"})
		expect(t, c, "", "", dirseek.NextNoDup, kv{"z", "9"})
		missing(t, c, "", "", dirseek.NextNoDup)

		expect(t, c, "k", "15", dirseek.GetBothRange, kv{"k", "20"})
		missing(t, c, "k", "31", dirseek.GetBothRange)
		expect(t, c, "k", "20", dirseek.GetBoth, kv{"k", "20"})
		missing(t, c, "k", "25", dirseek.GetBoth)
		missing(t, c, "j", "", dirseek.Set)
		expect(t, c, "j", "", dirseek.SetRange, kv{"k", "10"})
		expect(t, c, "", "", dirseek.Last, kv{"z", "9"})
		expect(t, c, "", "", dirseek.Prev, kv{"k\x00", "x"})
	})
}

func TestDupCompare(t *testing.T) {
	env, dbi := openMem(t, dirseek.DupSort)
	require.NoError(t, dirseek.Update(env, func(txn dirseek.Txn) error {
		return txn.SetDupCompare(dbi, func(a, b []byte) int { return bytes.Compare(b, a) })
	}))
	fill(t, env, dbi, kv{"k", "1"}, kv{"k", "3"}, kv{"k", "2"})

	var got []string
	read(t, env, dbi, func(c dirseek.Cursor) {
		require.NoError(t, dirseek.ForEachDup(c, []byte("k"), func(v []byte) error {
			got = append(got, string(v))
			return nil
		}))
		// GetBothRange follows the installed order
		expect(t, c, "k", "25", dirseek.GetBothRange, kv{"k", "2"})
	})
	assert.Equal(t, []string{"3", "2", "1"}, got)
}

func TestPutFlags(t *testing.T) {
	env, dbi := openMem(t, 0)
	fill(t, env, dbi, kv{"b", "1"})

	err := dirseek.Put(env, dbi, []byte("b"), []byte("2"), dirseek.NoOverwrite)
	assert.True(t, dirseek.IsKeyExist(err))
	err = dirseek.Put(env, dbi, []byte("a"), []byte("2"), dirseek.Append)
	assert.Equal(t, dirseek.ErrKeyMismatch, dirseek.Code(err))
	require.NoError(t, dirseek.Put(env, dbi, []byte("c"), []byte("3"), dirseek.Append))
	err = dirseek.Put(env, dbi, nil, []byte("x"), 0)
	assert.Equal(t, dirseek.ErrBadValSize, dirseek.Code(err))

	dup, ddbi := openMem(t, dirseek.DupSort)
	fill(t, dup, ddbi, kv{"k", "2"})
	err = dirseek.Put(dup, ddbi, []byte("k"), []byte("2"), dirseek.NoDupData)
	assert.True(t, dirseek.IsKeyExist(err))
	err = dirseek.Put(dup, ddbi, []byte("k"), []byte("3"), dirseek.NoOverwrite)
	assert.True(t, dirseek.IsKeyExist(err))
	err = dirseek.Put(dup, ddbi, []byte("k"), []byte("1"), dirseek.AppendDup)
	assert.Equal(t, dirseek.ErrKeyMismatch, dirseek.Code(err))
	require.NoError(t, dirseek.Put(dup, ddbi, []byte("k"), []byte("3"), dirseek.AppendDup))
	require.NoError(t, dirseek.Put(dup, ddbi, []byte("l"), []byte("0"), dirseek.AppendDup))
}

func TestDel(t *testing.T) {
	env, dbi := dupFixture(t)

	require.NoError(t, dirseek.Update(env, func(txn dirseek.Txn) error {
		if err := txn.Del(dbi, []byte("k"), []byte("20")); err != nil {
			return err
		}
		assert.True(t, dirseek.IsNotFound(txn.Del(dbi, []byte("k"), []byte("20"))))
		return txn.Del(dbi, []byte("z"), nil)
	}))

	read(t, env, dbi, func(c dirseek.Cursor) {
		n, err := dirseek.CountDups(c, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), n)
		n, err = dirseek.CountDups(c, []byte("z"))
		require.NoError(t, err)
		assert.Zero(t, n)
		expect(t, c, "", "", dirseek.Last, kv{"k\x00", "x"})
	})
}

func TestCursorSeesOwnWrites(t *testing.T) {
	env, dbi := openMem(t, dirseek.DupSort)
	fill(t, env, dbi, kv{"k", "1"}, kv{"k", "3"})

	require.NoError(t, dirseek.Update(env, func(txn dirseek.Txn) error {
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer c.Close()

		expect(t, c, "k", "1", dirseek.GetBoth, kv{"k", "1"})
		require.NoError(t, txn.Put(dbi, []byte("k"), []byte("2"), 0))
		// the cursor keeps its position and sees the new duplicate
		expect(t, c, "", "", dirseek.GetCurrent, kv{"k", "1"})
		expect(t, c, "", "", dirseek.NextDup, kv{"k", "2"})
		return nil
	}))
}

func TestResetRenew(t *testing.T) {
	env, dbi := openMem(t, 0)
	fill(t, env, dbi, kv{"a", "1"})

	txn, err := env.BeginTxn(dirseek.TxnReadOnly)
	require.NoError(t, err)
	defer txn.Abort()
	c, err := txn.OpenCursor(dbi)
	require.NoError(t, err)
	defer c.Close()

	expect(t, c, "", "", dirseek.Last, kv{"a", "1"})
	fill(t, env, dbi, kv{"b", "2"})
	expect(t, c, "", "", dirseek.Last, kv{"a", "1"})

	txn.Reset()
	_, _, err = c.Get(nil, nil, dirseek.First)
	assert.Equal(t, dirseek.ErrBadTxn, dirseek.Code(err))

	require.NoError(t, txn.Renew())
	require.NoError(t, c.Renew(txn))
	expect(t, c, "", "", dirseek.Last, kv{"b", "2"})

	assert.Equal(t, dirseek.ErrBadTxn, dirseek.Code(txn.Renew()), "renew needs a reset txn")
	assert.Equal(t, dirseek.ErrIncompatible, dirseek.Code(txn.Put(dbi, []byte("c"), nil, 0)))
}

func TestAbortForgetsCollection(t *testing.T) {
	env, err := memstore.Open(memstore.Options{})
	require.NoError(t, err)
	defer env.Close()

	txn, err := env.BeginTxn(dirseek.TxnReadWrite)
	require.NoError(t, err)
	_, err = txn.OpenDBI("tmp", dirseek.Create)
	require.NoError(t, err)
	txn.Abort()

	err = dirseek.View(env, func(txn dirseek.Txn) error {
		_, err := txn.OpenDBI("tmp", 0)
		return err
	})
	assert.True(t, dirseek.IsNotFound(err))
}
