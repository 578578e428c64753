package dirseek

// DBI is a collection handle.
type DBI uint32

// TableConfig describes how a collection is opened and ordered.
type TableConfig struct {
	// Flags are collection flags (DupSort). Create is implied.
	Flags uint

	// Compare orders keys. Nil keeps the store default.
	Compare CmpFunc

	// DupCompare orders duplicate values. Nil keeps the store default.
	DupCompare CmpFunc

	// DupSortPrefix, when non-zero, installs the fixed-width unsigned
	// comparator of that many bits as the duplicate comparator. It is
	// ignored when DupCompare is set.
	DupSortPrefix int
}

// OpenTable opens (creating if needed) a named collection and installs its
// comparators in one write transaction. Comparators must be installed
// before any data is written in a conflicting order.
func OpenTable(env Env, name string, cfg TableConfig) (DBI, error) {
	var dbi DBI
	err := Update(env, func(txn Txn) error {
		var err error
		dbi, err = txn.OpenDBI(name, cfg.Flags|Create)
		if err != nil {
			return err
		}
		if cfg.Compare != nil {
			if err := txn.SetCompare(dbi, cfg.Compare); err != nil {
				return err
			}
		}
		switch {
		case cfg.DupCompare != nil:
			return txn.SetDupCompare(dbi, cfg.DupCompare)
		case cfg.DupSortPrefix != 0:
			return SetDupSortAs(txn, dbi, cfg.DupSortPrefix)
		}
		return nil
	})
	return dbi, err
}

// Table names a collection together with its configuration. Stores that
// persist data in comparator order take their tables at open time.
type Table struct {
	Name string
	TableConfig
}
