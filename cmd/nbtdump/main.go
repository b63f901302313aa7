// nbtdump prints an NBT file, or one chunk of a region file, as text
// notation, JSON or YAML. With --key only the named root entries are decoded.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tmpim/anvil/v2"
	"github.com/tmpim/anvil/v2/nbt"
)

type options struct {
	format        string
	compression   string
	littleEndian  bool
	bedrockHeader bool
	keys          []string
	chunk         string
	indent        string
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
	var opts options
	var verbose bool

	flagSet := pflag.NewFlagSet("nbtdump", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.format, "format", "f", "snbt", "output format: snbt, pretty, json, typed-json or yaml")
	flagSet.StringVar(&opts.compression, "compression", "auto", "input compression: auto, gzip, zlib or none")
	flagSet.BoolVar(&opts.littleEndian, "little-endian", false, "read Bedrock edition little-endian NBT")
	flagSet.BoolVar(&opts.bedrockHeader, "bedrock-header", false, "input starts with the 8 byte Bedrock level.dat header")
	flagSet.StringArrayVarP(&opts.keys, "key", "k", nil, "only print this root key (repeatable)")
	flagSet.StringVar(&opts.chunk, "chunk", "", "treat FILE as a region and print chunk X,Z")
	flagSet.StringVar(&opts.indent, "indent", "  ", "indent used by the pretty format")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log details to stderr")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: nbtdump [flags] FILE\n\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected exactly one file")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	compression, err := nbt.ParseCompression(opts.compression)
	if err != nil {
		return err
	}
	readOpts := nbt.ReadOptions{
		Compression:   compression,
		LittleEndian:  opts.littleEndian,
		BedrockHeader: opts.bedrockHeader,
	}

	data, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		return err
	}

	if opts.chunk != "" {
		x, z, err := parseChunkPos(opts.chunk)
		if err != nil {
			return err
		}
		region, err := anvil.ReadRegion(data)
		if err != nil {
			return err
		}
		for _, s := range region.Skipped {
			logger.Warn("skipped chunk", "x", s.X, "z", s.Z, "error", s.Err)
		}
		chunk := region.FindChunk(x, z)
		if chunk == nil {
			return fmt.Errorf("no chunk at %d,%d", x, z)
		}
		logger.Debug("found chunk", "x", x, "z", z, "compression", chunk.GetCompression(),
			"bytes", len(chunk.Data), "timestamp", chunk.Timestamp)
		data = chunk.Data
		readOpts.Compression = chunk.GetCompression()
	}

	root, err := load(data, readOpts, opts.keys, logger)
	if err != nil {
		return err
	}

	text, err := render(root, opts)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func load(data []byte, readOpts nbt.ReadOptions, keys []string, logger *slog.Logger) (*nbt.Compound, error) {
	if len(keys) == 0 {
		f, err := nbt.ReadFile(data, readOpts)
		if err != nil {
			return nil, err
		}
		logger.Debug("read file", "name", f.Name, "compression", f.Compression, "entries", f.Root.Len())
		return f.Root, nil
	}

	lazy, err := nbt.OpenLazy(data, readOpts)
	if err != nil {
		return nil, err
	}
	found, err := lazy.GetMany(keys...)
	if err != nil {
		return nil, err
	}
	root := nbt.NewCompound()
	for _, key := range keys {
		t, ok := found[key]
		if !ok {
			logger.Warn("key not found", "key", key)
			continue
		}
		root.Set(key, t)
	}
	return root, nil
}

func render(root *nbt.Compound, opts options) (string, error) {
	switch opts.format {
	case "snbt":
		return root.String(), nil
	case "pretty":
		return nbt.Pretty(root, opts.indent), nil
	case "json":
		b, err := nbt.MarshalSimplifiedJSON(root)
		return string(b), err
	case "typed-json":
		b, err := nbt.MarshalTypedJSON(root)
		return string(b), err
	case "yaml":
		return renderYAML(root)
	}
	return "", fmt.Errorf("unknown format %q", opts.format)
}

func parseChunkPos(s string) (x, z int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--chunk wants X,Z, got %q", s)
	}
	if x, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, fmt.Errorf("--chunk: %w", err)
	}
	if z, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, fmt.Errorf("--chunk: %w", err)
	}
	return x, z, nil
}
