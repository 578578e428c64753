// Package mdbxstore binds dirseek to libmdbx through mdbx-go. MDBX
// implements the cursor contract natively, so operations pass straight
// through; only flags and error codes are translated.
//
// mdbx-go cannot install Go comparators, so collections keep MDBX's
// default lexicographic order and SetCompare/SetDupCompare report
// ErrIncompatible.
package mdbxstore

import (
	"errors"
	"os"
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/rs/zerolog"

	"github.com/Giulio2002/dirseek"
)

// Options configures Open.
type Options struct {
	MaxDBs uint64
	// MapSize is the upper bound of the data file, default 1 GiB.
	MapSize int
	// NoMetaSync skips syncing the meta page on commit.
	NoMetaSync bool
	Readonly   bool
	Logger     *zerolog.Logger
}

var ops = map[uint]uint{
	dirseek.First:        mdbx.First,
	dirseek.FirstDup:     mdbx.FirstDup,
	dirseek.GetBoth:      mdbx.GetBoth,
	dirseek.GetBothRange: mdbx.GetBothRange,
	dirseek.GetCurrent:   mdbx.GetCurrent,
	dirseek.GetMultiple:  mdbx.GetMultiple,
	dirseek.Last:         mdbx.Last,
	dirseek.LastDup:      mdbx.LastDup,
	dirseek.Next:         mdbx.Next,
	dirseek.NextDup:      mdbx.NextDup,
	dirseek.NextMultiple: mdbx.NextMultiple,
	dirseek.NextNoDup:    mdbx.NextNoDup,
	dirseek.Prev:         mdbx.Prev,
	dirseek.PrevDup:      mdbx.PrevDup,
	dirseek.PrevNoDup:    mdbx.PrevNoDup,
	dirseek.Set:          mdbx.Set,
	dirseek.SetKey:       mdbx.SetKey,
	dirseek.SetRange:     mdbx.SetRange,
}

func dbiFlags(flags uint) uint {
	var out uint
	if flags&dirseek.DupSort != 0 {
		out |= mdbx.DupSort
	}
	if flags&dirseek.Create != 0 {
		out |= mdbx.Create
	}
	return out
}

func putFlags(flags uint) uint {
	var out uint
	if flags&dirseek.NoOverwrite != 0 {
		out |= mdbx.NoOverwrite
	}
	if flags&dirseek.NoDupData != 0 {
		out |= mdbx.NoDupData
	}
	if flags&dirseek.Append != 0 {
		out |= mdbx.Append
	}
	if flags&dirseek.AppendDup != 0 {
		out |= mdbx.AppendDup
	}
	return out
}

// wrap translates an MDBX error to a dirseek error with the same code.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if mdbx.IsNotFound(err) {
		return dirseek.ErrNotFoundError
	}
	var errno mdbx.Errno
	var op *mdbx.OpError
	if errors.As(err, &op) {
		if e, ok := op.Errno.(mdbx.Errno); ok {
			errno = e
		}
	} else {
		errors.As(err, &errno)
	}
	if errno != 0 {
		return dirseek.WrapError(code(int(errno)), err)
	}
	return dirseek.WrapError(dirseek.ErrProblem, err)
}

func code(errno int) dirseek.ErrorCode {
	c := dirseek.ErrorCode(errno)
	switch c {
	case dirseek.ErrKeyExist, dirseek.ErrNotFound, dirseek.ErrCorrupted,
		dirseek.ErrInvalid, dirseek.ErrIncompatible, dirseek.ErrBadTxn,
		dirseek.ErrBadValSize, dirseek.ErrBadDBI, dirseek.ErrBusy,
		dirseek.ErrKeyMismatch:
		return c
	}
	return dirseek.ErrProblem
}

// Env is an open MDBX environment.
type Env struct {
	env *mdbx.Env
	log zerolog.Logger
}

var _ dirseek.Env = (*Env)(nil)

// Open opens or creates the data file at path.
func Open(path string, opts Options) (*Env, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("store", "mdbx").Logger()
	}
	if opts.MaxDBs == 0 {
		opts.MaxDBs = 16
	}
	if opts.MapSize == 0 {
		opts.MapSize = 1 << 30
	}

	env, err := mdbx.NewEnv(mdbx.Label("dirseek"))
	if err != nil {
		return nil, wrap(err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, opts.MaxDBs); err != nil {
		env.Close()
		return nil, wrap(err)
	}
	if err := env.SetGeometry(-1, -1, opts.MapSize, -1, -1, 4096); err != nil {
		env.Close()
		return nil, wrap(err)
	}

	// read txns move between goroutines through ReaderPool
	flags := uint(mdbx.NoSubdir | mdbx.NoTLS)
	if opts.Readonly {
		flags |= mdbx.Readonly
	} else {
		flags |= mdbx.Create
	}
	if opts.NoMetaSync {
		flags |= mdbx.NoMetaSync
	}
	if err := env.Open(path, flags, os.FileMode(0644)); err != nil {
		env.Close()
		return nil, wrap(err)
	}
	log.Info().Str("path", path).Uint64("maxdbs", opts.MaxDBs).Msg("mdbx store opened")
	return &Env{env: env, log: log}, nil
}

// BeginTxn starts a transaction. A write transaction locks the calling
// goroutine to its OS thread until it ends.
func (e *Env) BeginTxn(flags uint) (dirseek.Txn, error) {
	readOnly := flags&dirseek.TxnReadOnly != 0
	var tf uint
	if readOnly {
		tf = mdbx.Readonly
	} else {
		runtime.LockOSThread()
	}
	t, err := e.env.BeginTxn(nil, tf)
	if err != nil {
		if !readOnly {
			runtime.UnlockOSThread()
		}
		return nil, wrap(err)
	}
	return &Txn{txn: t, readOnly: readOnly}, nil
}

func (e *Env) Close() error {
	e.env.Close()
	return nil
}

// Txn wraps an MDBX transaction.
type Txn struct {
	txn      *mdbx.Txn
	readOnly bool
	done     bool
}

var _ dirseek.Txn = (*Txn)(nil)

func (t *Txn) OpenDBI(name string, flags uint) (dirseek.DBI, error) {
	dbi, err := t.txn.OpenDBI(name, dbiFlags(flags), nil, nil)
	if err != nil {
		return 0, wrap(err)
	}
	return dirseek.DBI(dbi), nil
}

func (t *Txn) OpenCursor(dbi dirseek.DBI) (dirseek.Cursor, error) {
	c, err := t.txn.OpenCursor(mdbx.DBI(dbi))
	if err != nil {
		return nil, wrap(err)
	}
	return &Cursor{c: c, txn: t, dbi: dbi}, nil
}

func (t *Txn) Get(dbi dirseek.DBI, key []byte) ([]byte, error) {
	v, err := t.txn.Get(mdbx.DBI(dbi), key)
	return v, wrap(err)
}

func (t *Txn) Put(dbi dirseek.DBI, key, val []byte, flags uint) error {
	return wrap(t.txn.Put(mdbx.DBI(dbi), key, val, putFlags(flags)))
}

func (t *Txn) Del(dbi dirseek.DBI, key, val []byte) error {
	return wrap(t.txn.Del(mdbx.DBI(dbi), key, val))
}

func (t *Txn) Cmp(dbi dirseek.DBI, a, b []byte) int {
	return t.txn.Cmp(mdbx.DBI(dbi), a, b)
}

func (t *Txn) DCmp(dbi dirseek.DBI, a, b []byte) int {
	return t.txn.DCmp(mdbx.DBI(dbi), a, b)
}

func (t *Txn) SetCompare(dirseek.DBI, dirseek.CmpFunc) error {
	return dirseek.NewError(dirseek.ErrIncompatible)
}

func (t *Txn) SetDupCompare(dirseek.DBI, dirseek.CmpFunc) error {
	return dirseek.NewError(dirseek.ErrIncompatible)
}

func (t *Txn) IsReadOnly() bool { return t.readOnly }

func (t *Txn) Reset() { t.txn.Reset() }

func (t *Txn) Renew() error { return wrap(t.txn.Renew()) }

func (t *Txn) Commit() error {
	if t.done {
		return dirseek.NewError(dirseek.ErrBadTxn)
	}
	_, err := t.txn.Commit()
	t.finish()
	return wrap(err)
}

func (t *Txn) Abort() {
	if t.done {
		return
	}
	t.txn.Abort()
	t.finish()
}

func (t *Txn) finish() {
	t.done = true
	if !t.readOnly {
		runtime.UnlockOSThread()
	}
}

// Cursor wraps an MDBX cursor.
type Cursor struct {
	c   *mdbx.Cursor
	txn *Txn
	dbi dirseek.DBI
}

var _ dirseek.Cursor = (*Cursor)(nil)

func (c *Cursor) Get(key, val []byte, op uint) ([]byte, []byte, error) {
	mop, ok := ops[op]
	if !ok {
		return nil, nil, dirseek.NewError(dirseek.ErrInvalid)
	}
	k, v, err := c.c.Get(key, val, mop)
	if err != nil {
		return nil, nil, wrap(err)
	}
	return k, v, nil
}

func (c *Cursor) Renew(txn dirseek.Txn) error {
	t, ok := txn.(*Txn)
	if !ok {
		return dirseek.NewError(dirseek.ErrIncompatible)
	}
	if err := c.c.Renew(t.txn); err != nil {
		return wrap(err)
	}
	c.txn = t
	return nil
}

func (c *Cursor) Count() (uint64, error) {
	n, err := c.c.Count()
	return n, wrap(err)
}

func (c *Cursor) Txn() dirseek.Txn { return c.txn }
func (c *Cursor) DBI() dirseek.DBI { return c.dbi }
func (c *Cursor) Close()           { c.c.Close() }
