// Command allotree builds allocation Merkle trees,
// prints roots and proofs, writes proof dumps,
// and serves proofs over QUIC.
//
// Usage:
//
//	allotree [-log-level LEVEL] <command> [flags]
//
//	allotree root -in FILE [-hex]
//	allotree prove -in FILE -address A -amount N -timestamp T -id I
//	allotree dump -first FILE [-second FILE] -out DIR
//	allotree serve -in FILE -listen ADDR -cert FILE -key FILE [-metrics ADDR]
//
// The serve command reloads its allocations file on SIGHUP.
//
// Allocation files are JSON arrays of objects with
// address, amount, timestamp, and id fields.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var level slog.Level
	flag.TextVar(&level, "log-level", slog.LevelInfo, "minimum log level (debug, info, warn, error)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(ctx, log, flag.Args(), os.Stdout); err != nil {
		log.Error("Fatal error", "err", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: allotree <root|prove|dump|serve> [flags]")

func run(ctx context.Context, log *slog.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "root":
		return runRoot(rest, stdout)
	case "prove":
		return runProve(rest, stdout)
	case "dump":
		return runDump(log, rest)
	case "serve":
		return runServe(ctx, log, rest)
	default:
		return fmt.Errorf("unknown command %q; %w", cmd, errUsage)
	}
}
