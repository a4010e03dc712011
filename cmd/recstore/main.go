// Command recstore is an interactive REPL for creating, inspecting, and
// mutating a record store file.
//
// Usage:
//
//	recstore new --path store.db [--block-size N] [--header-size N]
//	recstore --path store.db [--config recstore.hujson]
//
// Once open, the REPL accepts:
//
//	create [file]       create a record, optionally seeded from file's bytes
//	get <id>             print a record's bytes to stdout
//	update <id> <file>   overwrite a record with file's bytes
//	delete <id>          delete a record
//	info                 print block size, header size, content size
//	freelist             print the free list's block ids
//	help                 list commands
//	exit                 quit
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/nyxstorage/recordstore/internal/config"
	"github.com/nyxstorage/recordstore/internal/fsx"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "recstore:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("recstore", flag.ContinueOnError)
	var (
		path       = fs.String("path", "", "record store file")
		blockSize  = fs.Int64("block-size", 0, "block size in bytes (default 40960)")
		headerSize = fs.Int64("header-size", 0, "header size in bytes (default 48)")
		configPath = fs.String("config", "", "HuJSON config file")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	create := false
	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "new" {
		create = true
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg = config.ApplyOverrides(cfg, *path, *blockSize, *headerSize)
	if cfg.Path == "" {
		return fmt.Errorf("recstore: --path is required")
	}

	lock, err := fsx.LockPath(cfg.Path + ".lock")
	if err != nil {
		return fmt.Errorf("recstore: acquiring lock: %w", err)
	}
	defer lock.Close()

	if create {
		if err := createStoreFile(cfg.Path); err != nil {
			return err
		}
		fmt.Printf("created %s (block_size=%d header_size=%d)\n", cfg.Path, cfg.BlockSize, cfg.HeaderSize)
		return nil
	}

	session, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer session.close()

	return session.repl()
}

// createStoreFile atomically creates an empty record store file. A
// zero-length file is a valid, empty store - block 0 (the free-list
// sentinel) is created lazily on first allocation.
func createStoreFile(path string) error {
	return fsx.CreateAtomic(path, func(buf *bytes.Buffer) error {
		return nil
	})
}

func newLiner() *liner.State {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return l
}
