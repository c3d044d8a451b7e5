// Command rvtrace reconstructs the executed PC sequence from a RISC-V
// efficient trace capture and a loaded binary image, printing one address
// per line.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"rvtrace"
	"rvtrace/common"
	"rvtrace/internal/image"
	"rvtrace/internal/tracepkt"
)

// Config holds command-line configuration.
type Config struct {
	TracePath string
	ImagePath string
	ImageBase uint64
	LogLevel  string
	Stats     bool
}

func parseCommandLine() *Config {
	cfg := &Config{
		LogLevel: "none",
	}

	flag.StringVar(&cfg.TracePath, "trace", "", "Path to a trace capture file (hex-encoded bytes, one stream)")
	flag.StringVar(&cfg.ImagePath, "image", "", "Path to the raw binary image the trace was captured against")
	flag.Uint64Var(&cfg.ImageBase, "image-base", 0, "Load address of -image")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Logging verbosity: none, error, warning, info, debug")
	flag.BoolVar(&cfg.Stats, "stats", false, "Print packet decode statistics to stderr")

	flag.Parse()
	return cfg
}

func newLogger(level string) common.Logger {
	switch level {
	case "none", "":
		return common.NewNoOpLogger()
	case "debug":
		return common.NewStdLogger(common.SeverityDebug)
	case "info":
		return common.NewStdLogger(common.SeverityInfo)
	case "warning":
		return common.NewStdLogger(common.SeverityWarning)
	case "error":
		return common.NewStdLogger(common.SeverityError)
	default:
		fmt.Fprintf(os.Stderr, "rvtrace: unknown -log-level %q, defaulting to info\n", level)
		return common.NewStdLogger(common.SeverityInfo)
	}
}

func readTraceBytes(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}
	decoded, err := hex.DecodeString(trimHexWhitespace(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding trace file as hex: %w", err)
	}
	return decoded, nil
}

func trimHexWhitespace(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch b {
		case ' ', '\n', '\r', '\t':
			continue
		default:
			out = append(out, b)
		}
	}
	return string(out)
}

func main() {
	cfg := parseCommandLine()

	if cfg.TracePath == "" || cfg.ImagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: rvtrace -trace <hex-file> -image <raw-binary> [-image-base 0x...] [-log-level info] [-stats]")
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	traceBytes, err := readTraceBytes(cfg.TracePath)
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	imageBytes, err := os.ReadFile(cfg.ImagePath)
	if err != nil {
		logger.Logf(common.SeverityError, "reading image file: %v", err)
		os.Exit(1)
	}

	idx := image.NewIndex()
	idx.Add(&image.Section{Base: uint32(cfg.ImageBase), Data: imageBytes})

	if cfg.Stats {
		_, stats := tracepkt.Decode(traceBytes)
		fmt.Fprintf(os.Stderr, "packets decoded: %d, bytes consumed: %d/%d\n",
			stats.PacketsDecoded, stats.BytesConsumed, stats.BytesTotal)
	}

	path, err := rvtrace.ParseTraceWithLogger(traceBytes, []*image.Index{idx}, logger)
	if err != nil {
		logger.Logf(common.SeverityError, "reconstructing trace: %v", err)
		os.Exit(1)
	}

	for _, pc := range path {
		fmt.Printf("%#010x\n", pc)
	}
}
