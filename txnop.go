package dirseek

// TxnOp is a function that operates on a transaction.
type TxnOp func(txn Txn) error

// View executes a read-only transaction.
func View(env Env, fn TxnOp) error {
	return RunTxn(env, TxnReadOnly, fn)
}

// Update executes a read-write transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func Update(env Env, fn TxnOp) error {
	return RunTxn(env, TxnReadWrite, fn)
}

// RunTxn runs a transaction with the given flags.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func RunTxn(env Env, flags uint, fn TxnOp) error {
	txn, err := env.BeginTxn(flags)
	if err != nil {
		return err
	}
	err = fn(txn)
	if err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}

// Put inserts (key, val) in its own write transaction. flags are Put
// flags such as NoOverwrite or Append.
func Put(env Env, dbi DBI, key, val []byte, flags uint) error {
	return Update(env, func(txn Txn) error {
		return txn.Put(dbi, key, val, flags)
	})
}
