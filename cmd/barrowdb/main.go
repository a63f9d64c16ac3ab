// Command barrowdb is a minimal demonstration client over the storage
// core: open a data file, put/get/scan rows through the table layer, and
// flush. It exists to exercise the engine end to end, not as a real
// client tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/barrowdb/barrow/internal/codec"
	"github.com/barrowdb/barrow/internal/config"
	"github.com/barrowdb/barrow/internal/storage/buffer"
	"github.com/barrowdb/barrow/internal/storage/disk"
	"github.com/barrowdb/barrow/internal/storage/page"
	"github.com/barrowdb/barrow/internal/table"
)

var (
	flagConfig = flag.String("config", "", "path to a YAML config file (overrides -db/-backend/-pool-frames if set)")
	flagDB     = flag.String("db", "barrow.db", "data file path (ignored for -backend=memory)")
	flagBackend = flag.String("backend", "file", "disk backend: file, memory, or direct")
	flagFrames = flag.Int("pool-frames", 64, "number of buffer pool frames")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: barrowdb [flags] <command> [args]

commands:
  put <key-cols> <value-cols>   insert one row (comma-separated columns)
  get <key-cols>                print the row stored under key-cols
  scan                          print every row in ascending key order
  flush                         force all dirty pages to the backend

flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cfg := config.Default()
	cfg.DataFile = *flagDB
	cfg.Backend = config.Backend(*flagBackend)
	cfg.BufferPoolFrames = *flagFrames
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("barrowdb: %v", err)
		}
		cfg = loaded
	}

	sessionID := uuid.New()
	log.Printf("barrowdb session=%s backend=%s db=%s frames=%d", sessionID, cfg.Backend, cfg.DataFile, cfg.BufferPoolFrames)

	fresh := cfg.Backend == config.BackendMemory || fileIsEmpty(cfg.DataFile)

	d, err := openDisk(cfg)
	if err != nil {
		log.Fatalf("barrowdb: %v", err)
	}
	defer d.Close()

	pool := buffer.NewPool(d, cfg.BufferPoolFrames)

	var tb *table.Table
	if fresh {
		tb, err = table.Create(pool, -1)
		if err != nil {
			log.Fatalf("barrowdb: create table: %v", err)
		}
	} else {
		tb = table.Open(pool, page.ID(0), page.InvalidID, -1)
	}

	switch cmd := args[0]; cmd {
	case "put":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		if err := runPut(tb, args[1], args[2]); err != nil {
			log.Fatalf("barrowdb: put: %v", err)
		}
	case "get":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		if err := runGet(tb, args[1]); err != nil {
			log.Fatalf("barrowdb: get: %v", err)
		}
	case "scan":
		if err := runScan(tb); err != nil {
			log.Fatalf("barrowdb: scan: %v", err)
		}
	case "flush":
		if err := pool.Flush(); err != nil {
			log.Fatalf("barrowdb: flush: %v", err)
		}
		if err := d.Sync(); err != nil {
			log.Fatalf("barrowdb: sync: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err := pool.Flush(); err != nil {
		log.Fatalf("barrowdb: flush on exit: %v", err)
	}
	if err := d.Sync(); err != nil {
		log.Fatalf("barrowdb: sync on exit: %v", err)
	}
}

func openDisk(cfg config.Config) (*disk.Manager, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return disk.NewMemory(), nil
	case config.BackendDirect:
		return disk.NewDirect(cfg.DataFile)
	default:
		return disk.Open(cfg.DataFile)
	}
}

func fileIsEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Size() == 0
}

func splitCols(s string) [][]byte {
	parts := strings.Split(s, ",")
	cols := make([][]byte, len(parts))
	for i, p := range parts {
		cols[i] = []byte(p)
	}
	return cols
}

func runPut(tb *table.Table, keyArg, valueArg string) error {
	return tb.Insert(splitCols(keyArg), splitCols(valueArg))
}

func runGet(tb *table.Table, keyArg string) error {
	row, found, err := tb.Get(splitCols(keyArg))
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("(not found)")
		return nil
	}
	fmt.Println(codec.PrettyTuple(row))
	return nil
}

func runScan(tb *table.Table) error {
	cur, err := tb.Scan()
	if err != nil {
		return err
	}
	defer cur.Close()
	for {
		row, ok, err := cur.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Println(codec.PrettyTuple(row))
	}
}
