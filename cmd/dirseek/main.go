// Command dirseek writes to and queries a dirseek collection from the
// shell.
//
//	dirseek -backend pebble -path ./db -dupwidth 64 put 0x01 0x000000000000002a
//	dirseek -backend pebble -path ./db -dupwidth 64 finddup le 0x01 0x0000000000000030
//
// Keys and values prefixed with 0x are hex; anything else is taken as is.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Giulio2002/dirseek"
	"github.com/Giulio2002/dirseek/boltstore"
	"github.com/Giulio2002/dirseek/internal/log"
	"github.com/Giulio2002/dirseek/mdbxstore"
	"github.com/Giulio2002/dirseek/pebblestore"
	"github.com/Giulio2002/dirseek/rocksstore"
)

const usage = `usage: dirseek [flags] <command> [args]

commands:
  put KEY VAL              write one entry
  find DIR KEY             primary-key lookup, DIR is lt|le|eq|ge|gt
  finddup DIR KEY VAL      duplicate lookup within KEY
  dups KEY                 list the duplicates of KEY
  scan DIR KEY [N]         walk up to N entries from the lookup result
  load FILE                load KEY<TAB>VAL lines, "-" for stdin
  version                  print the library version

flags:
`

// errNotFound makes main exit with status 1 without printing an error.
var errNotFound = errors.New("not found")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stdin))
}

func run(args []string, stdout io.Writer, stdin io.Reader) int {
	fs := flag.NewFlagSet("dirseek", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	var f flags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if fs.Arg(0) == "version" {
		fmt.Fprintln(stdout, dirseek.Version())
		return 0
	}

	cfg, err := loadConfig(f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirseek: config: %v\n", err)
		return 2
	}
	f.apply(fs, &cfg)

	lvl, err := log.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirseek: %v\n", err)
		return 2
	}
	typ, err := log.ParseLoggerType(cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirseek: %v\n", err)
		return 2
	}
	log.Init(log.Options{LogLevel: lvl, Type: typ})

	env, dbi, err := open(cfg)
	if err != nil {
		log.CLI.Error().Err(err).Str("backend", cfg.Backend).Str("path", cfg.Path).Msg("open failed")
		return 2
	}
	defer env.Close()

	err = command(env, dbi, fs.Args(), stdout, stdin)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotFound):
		fmt.Fprintln(stdout, "not found")
		return 1
	default:
		log.CLI.Error().Err(err).Str("command", fs.Arg(0)).Msg("command failed")
		return 2
	}
}

func open(cfg Config) (dirseek.Env, dirseek.DBI, error) {
	tc := dirseek.TableConfig{DupSortPrefix: cfg.DupWidth}
	if cfg.DupSort {
		tc.Flags |= dirseek.DupSort
	}
	tables := []dirseek.Table{{Name: cfg.Table, TableConfig: tc}}

	var env dirseek.Env
	var err error
	switch cfg.Backend {
	case "mdbx", "bolt":
		if cfg.DupWidth != 0 {
			return nil, 0, fmt.Errorf("backend %s keeps bytewise duplicate order, -dupwidth needs pebble or rocks", cfg.Backend)
		}
		if cfg.Backend == "mdbx" {
			env, err = mdbxstore.Open(cfg.Path, mdbxstore.Options{NoMetaSync: cfg.NoSync, Logger: &log.Store})
		} else {
			env, err = boltstore.Open(cfg.Path, boltstore.Options{NoSync: cfg.NoSync, Logger: &log.Store})
		}
	case "pebble":
		env, err = pebblestore.Open(cfg.Path, pebblestore.Options{Tables: tables, NoSync: cfg.NoSync, Logger: &log.Store})
	case "rocks":
		env, err = rocksstore.Open(cfg.Path, rocksstore.Options{Tables: tables, Sync: !cfg.NoSync, Logger: &log.Store})
	default:
		return nil, 0, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, 0, err
	}

	dbi, err := dirseek.OpenTable(env, cfg.Table, tc)
	if err != nil {
		env.Close()
		return nil, 0, err
	}
	return env, dbi, nil
}

func command(env dirseek.Env, dbi dirseek.DBI, args []string, out io.Writer, in io.Reader) error {
	name, args := args[0], args[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: need %d arguments, got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "put":
		if err := need(2); err != nil {
			return err
		}
		k, v, err := decodePair(args[0], args[1])
		if err != nil {
			return err
		}
		return dirseek.Put(env, dbi, k, v, dirseek.Upsert)

	case "find":
		if err := need(2); err != nil {
			return err
		}
		dir, err := dirseek.ParseLookup(args[0])
		if err != nil {
			return err
		}
		key, err := decode(args[1])
		if err != nil {
			return err
		}
		r := dirseek.NewReader(env, dbi)
		defer r.Close()
		k, v, err := notFound(r.Find(dir, key))
		return printResult(out, k, v, err)

	case "finddup":
		if err := need(3); err != nil {
			return err
		}
		dir, err := dirseek.ParseLookup(args[0])
		if err != nil {
			return err
		}
		k, v, err := decodePair(args[1], args[2])
		if err != nil {
			return err
		}
		r := dirseek.NewReader(env, dbi)
		defer r.Close()
		k, v, err = notFound(r.FindDup(dir, k, v))
		return printResult(out, k, v, err)

	case "dups":
		if err := need(1); err != nil {
			return err
		}
		key, err := decode(args[0])
		if err != nil {
			return err
		}
		return withCursor(env, dbi, func(c dirseek.Cursor) error {
			n := 0
			err := dirseek.ForEachDup(c, key, func(v []byte) error {
				n++
				_, err := fmt.Fprintln(out, encode(v))
				return err
			})
			if err == nil && n == 0 {
				return errNotFound
			}
			return err
		})

	case "scan":
		if err := need(2); err != nil {
			return err
		}
		dir, err := dirseek.ParseLookup(args[0])
		if err != nil {
			return err
		}
		key, err := decode(args[1])
		if err != nil {
			return err
		}
		limit := -1
		if len(args) > 2 {
			if limit, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("scan: limit: %w", err)
			}
		}
		return withCursor(env, dbi, func(c dirseek.Cursor) error {
			n := 0
			err := dirseek.Scan(c, dir, key, func(k, v []byte) bool {
				fmt.Fprintf(out, "%s\t%s\n", encode(k), encode(v))
				n++
				return limit < 0 || n < limit
			})
			if err == nil && n == 0 {
				return errNotFound
			}
			return err
		})

	case "load":
		if err := need(1); err != nil {
			return err
		}
		r := in
		if args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			r = file
		}
		return load(env, dbi, r)
	}
	return fmt.Errorf("unknown command %q", name)
}

func withCursor(env dirseek.Env, dbi dirseek.DBI, fn func(c dirseek.Cursor) error) error {
	return dirseek.View(env, func(txn dirseek.Txn) error {
		c, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer c.Close()
		return fn(c)
	})
}

func load(env dirseek.Env, dbi dirseek.DBI, r io.Reader) error {
	n := 0
	err := dirseek.Update(env, func(txn dirseek.Txn) error {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64<<10), 16<<20)
		for line := 1; sc.Scan(); line++ {
			text := sc.Text()
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			ks, vs, ok := strings.Cut(text, "\t")
			if !ok {
				return fmt.Errorf("line %d: missing tab", line)
			}
			k, v, err := decodePair(ks, vs)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if err := txn.Put(dbi, k, v, dirseek.Upsert); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			n++
		}
		return sc.Err()
	})
	if err != nil {
		return err
	}
	log.CLI.Info().Int("entries", n).Msg("loaded")
	return nil
}

func notFound(k, v []byte, err error) ([]byte, []byte, error) {
	if dirseek.IsNotFound(err) {
		return nil, nil, errNotFound
	}
	return k, v, err
}

func printResult(out io.Writer, k, v []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\t%s\n", encode(k), encode(v))
	return err
}

func decode(s string) ([]byte, error) {
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("bad hex %q: %w", s, err)
		}
		return b, nil
	}
	return []byte(s), nil
}

func decodePair(ks, vs string) ([]byte, []byte, error) {
	k, err := decode(ks)
	if err != nil {
		return nil, nil, err
	}
	v, err := decode(vs)
	if err != nil {
		return nil, nil, err
	}
	return k, v, nil
}

// encode prints printable text as is and everything else as 0x hex.
func encode(b []byte) string {
	if len(b) > 0 && utf8.Valid(b) && !strings.HasPrefix(string(b), "0x") {
		printable := true
		for _, r := range string(b) {
			if r < 0x20 || r == 0x7f {
				printable = false
				break
			}
		}
		if printable {
			return string(b)
		}
	}
	return "0x" + hex.EncodeToString(b)
}
