package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/adump"
	"github.com/gordian-engine/allotree/aload"
	"github.com/gordian-engine/allotree/arecord"
)

// loadTree builds a tree from the allocations file at path.
// The flag name is only used for the error when path is empty.
func loadTree(flagName, path string) (*allotree.Tree, error) {
	if path == "" {
		return nil, fmt.Errorf("-%s is required", flagName)
	}

	records, err := aload.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tree, err := allotree.Build(records, allotree.BuildConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to build tree from %s: %w", path, err)
	}
	return tree, nil
}

func runRoot(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("root", flag.ContinueOnError)
	in := fs.String("in", "", "allocations JSON file")
	hex := fs.Bool("hex", false, "print the root as hex instead of decimal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tree, err := loadTree("in", *in)
	if err != nil {
		return err
	}

	root := tree.RootDecimal()
	if *hex {
		root = tree.RootHex()
	}
	_, err = fmt.Fprintln(stdout, root)
	return err
}

func runProve(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	in := fs.String("in", "", "allocations JSON file")
	var r arecord.Record
	fs.StringVar(&r.Address, "address", "", "hex address of the allocation")
	fs.Uint64Var(&r.Amount, "amount", 0, "amount of the allocation")
	fs.StringVar(&r.Timestamp, "timestamp", "", "hex timestamp of the allocation")
	fs.Uint64Var(&r.ID, "id", 0, "id of the allocation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tree, err := loadTree("in", *in)
	if err != nil {
		return err
	}

	calldata, err := tree.Calldata(r.Address, r.Amount, r.Timestamp, r.ID)
	if err != nil {
		return err
	}

	for _, c := range calldata {
		if _, err := fmt.Fprintln(stdout, c); err != nil {
			return err
		}
	}
	return nil
}

func runDump(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	first := fs.String("first", "", "first wave allocations JSON file")
	second := fs.String("second", "", "second wave allocations JSON file, merged into the first")
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tree, err := loadTree("first", *first)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	p := filepath.Join(*out, "first_merkle_tree_data.txt")
	if err := adump.WriteFile(p, "First Wave", tree); err != nil {
		return err
	}
	log.Info("Wrote proof dump", "path", p, "root", tree.RootHex(), "allocations", tree.Len())

	if *second == "" {
		return nil
	}

	records, err := aload.ReadFile(*second)
	if err != nil {
		return err
	}

	merged, err := tree.Merge(records)
	if err != nil {
		return fmt.Errorf("failed to merge second wave: %w", err)
	}

	p = filepath.Join(*out, "second_merkle_tree_data.txt")
	if err := adump.WriteFile(p, "Second Wave", merged); err != nil {
		return err
	}
	log.Info("Wrote proof dump", "path", p, "root", merged.RootHex(), "allocations", merged.Len())

	return nil
}
