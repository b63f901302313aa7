// regionscan walks a directory of .mca region files and reports, for
// every chunk, the value of one root key (DataVersion by default). Only
// that key is decoded; the rest of each chunk is skipped by the lazy
// reader. It also counts chunks whose stored bytes are identical.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/tmpim/anvil/v2"
)

type scanChunk struct {
	region *anvil.RegionFile
	chunk  *anvil.RegionChunk
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		workers int
		key     string
		verbose bool
	)

	flagSet := pflag.NewFlagSet("regionscan", pflag.ContinueOnError)
	flagSet.IntVarP(&workers, "workers", "w", 8, "number of chunk decoding goroutines")
	flagSet.StringVarP(&key, "key", "k", "DataVersion", "root key to read from every chunk")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every chunk")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: regionscan [flags] REGION_DIR\n\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected exactly one region directory")
	}
	if workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	regionFiles, err := filepath.Glob(filepath.Join(flagSet.Arg(0), "*.mca"))
	if err != nil {
		return err
	}
	if len(regionFiles) == 0 {
		return fmt.Errorf("no .mca files in %s", flagSet.Arg(0))
	}

	start := time.Now()
	res := scan(logger, regionFiles, workers, key)
	logger.Info("scan finished", "took", time.Since(start), "chunks", res.total,
		"failed", res.failed, "skipped", res.skipped, "without_key", res.missing,
		"duplicates", res.duplicates)

	values := res.values
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return values[keys[i]] > values[keys[j]] })
	for _, k := range keys {
		fmt.Printf("%s = %s: %d\n", key, k, values[k])
	}
	return nil
}

// scanResult sums up one scan. values counts chunks per rendered key
// value; duplicates counts chunks whose stored bytes match an earlier one.
type scanResult struct {
	values     map[string]int
	total      int64
	failed     int64
	skipped    int64
	missing    int64
	duplicates int
}

func scan(logger *slog.Logger, regionFiles []string, workers int, key string) *scanResult {
	out := make(chan scanChunk, 10)

	var skipped int64
	go func() {
		defer close(out)

		for _, file := range regionFiles {
			rd, err := anvil.OpenRegionFile(file)
			if err != nil {
				logger.Warn("failed to open region", "file", file, "error", err)
				continue
			}
			for _, s := range rd.Skipped {
				logger.Warn("skipped chunk", "file", file, "x", s.X, "z", s.Z, "error", s.Err)
			}
			atomic.AddInt64(&skipped, int64(len(rd.Skipped)))

			for _, chunk := range rd.Chunks() {
				out <- scanChunk{region: rd, chunk: chunk}
			}
			logger.Info("processed region", "file", file, "chunks", rd.Len())
		}
	}()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		values  = make(map[string]int)
		hashes  = make(map[[16]byte]int)
		total   int64
		failed  int64
		missing int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sc := range out {
				atomic.AddInt64(&total, 1)
				world := sc.region.WorldChunk(sc.chunk)

				hash := sc.chunk.Hash()
				mu.Lock()
				hashes[hash]++
				mu.Unlock()

				lazy, err := sc.chunk.Lazy()
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Debug("unreadable chunk", "x", world.X, "z", world.Z, "error", err)
					continue
				}
				tag, ok, err := lazy.Get(key)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Debug("corrupt chunk", "x", world.X, "z", world.Z, "error", err)
					continue
				}
				if !ok {
					atomic.AddInt64(&missing, 1)
					continue
				}
				logger.Debug("chunk", "x", world.X, "z", world.Z, key, tag.String())

				mu.Lock()
				values[tag.String()]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	duplicates := 0
	for _, n := range hashes {
		if n > 1 {
			duplicates += n - 1
		}
	}

	return &scanResult{
		values:     values,
		total:      total,
		failed:     failed,
		skipped:    skipped,
		missing:    missing,
		duplicates: duplicates,
	}
}
