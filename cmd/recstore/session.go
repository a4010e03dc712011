package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/nyxstorage/recordstore/block"
	"github.com/nyxstorage/recordstore/internal/config"
	"github.com/nyxstorage/recordstore/internal/fsx"
	"github.com/nyxstorage/recordstore/record"
)

type session struct {
	file    fsx.File
	storage *block.Storage
	store   *record.Store
}

func openSession(cfg config.Store) (*session, error) {
	f, err := fsx.NewReal().OpenFile(cfg.Path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recstore: open %q: %w", cfg.Path, err)
	}

	stream := block.NewFileStream(f)
	storage, err := block.Open(stream, block.Config{BlockSize: cfg.BlockSize, HeaderSize: cfg.HeaderSize})
	if err != nil {
		f.Close()
		return nil, err
	}
	store, err := record.Open(storage)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &session{file: f, storage: storage, store: store}, nil
}

func (s *session) close() error {
	return s.storage.Close()
}

func (s *session) repl() error {
	l := newLiner()
	defer l.Close()

	for {
		line, err := l.Prompt("recstore> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l.AppendHistory(line)

		if err := s.dispatch(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

var errExit = errors.New("exit")

func (s *session) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit", "quit":
		return errExit
	case "help":
		printHelp()
		return nil
	case "info":
		return s.cmdInfo()
	case "freelist":
		return s.cmdFreelist()
	case "create":
		return s.cmdCreate(args)
	case "get":
		return s.cmdGet(args)
	case "update":
		return s.cmdUpdate(args)
	case "delete":
		return s.cmdDelete(args)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func printHelp() {
	fmt.Println(`commands:
  create [file]        create a record, optionally seeded from file's bytes
  get <id>             print a record's bytes to stdout
  update <id> <file>   overwrite a record with file's bytes
  delete <id>          delete a record
  info                 print block size, header size, content size
  freelist             print the free list's block ids
  help                 list commands
  exit                 quit`)
}

func (s *session) cmdInfo() error {
	cfg := s.storage.Config()
	stats, err := s.store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("block_size=%d header_size=%d content_size=%d sector_size=%d\n",
		cfg.BlockSize, cfg.HeaderSize, cfg.ContentSize(), cfg.SectorSize())
	fmt.Printf("total_blocks=%d live_records=%d free_list_len=%d\n",
		stats.TotalBlocks, stats.LiveRecords, stats.FreeListLen)
	return nil
}

func (s *session) cmdCreate(args []string) error {
	var data []byte
	if len(args) > 0 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		data = b
	}
	id, err := s.store.CreateBytes(data)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (s *session) cmdGet(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	data, found, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("record %d not found", id)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func (s *session) cmdUpdate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: update <id> <file>")
	}
	id, err := parseID(args[:1])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	return s.store.Update(id, data)
}

func (s *session) cmdDelete(args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	return s.store.Delete(id)
}

// cmdFreelist walks record 0's chain directly through the block layer and
// prints every free block id it holds, plus each block's
// block_content_length - useful for diagnosing free-list growth and reuse.
func (s *session) cmdFreelist() error {
	id := uint32(0)
	total := 0
	for {
		b, found, err := s.storage.Get(id)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("free list is empty (block 0 does not exist yet)")
			return nil
		}
		length, err := b.Header(block.FieldBlockContentLength)
		if err != nil {
			b.Release()
			return err
		}
		fmt.Printf("block %d: block_content_length=%d\n", id, length)

		buf := make([]byte, length)
		if length > 0 {
			if _, err := b.ReadAt(buf, 0, 0, int(length)); err != nil {
				b.Release()
				return err
			}
		}
		for off := int64(0); off+4 <= length; off += 4 {
			fmt.Println(" ", binary.LittleEndian.Uint32(buf[off:off+4]))
			total++
		}

		next, err := b.Header(block.FieldNextBlockID)
		if err != nil {
			b.Release()
			return err
		}
		if err := b.Release(); err != nil {
			return err
		}
		if next == 0 {
			break
		}
		id = uint32(next)
	}
	fmt.Printf("total free blocks: %d\n", total)
	return nil
}

func parseID(args []string) (uint32, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing <id>")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", args[0], err)
	}
	return uint32(n), nil
}
