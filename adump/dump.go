// Package adump writes human-readable proof dumps for a whole tree:
// the root, then the calldata for every allocation.
//
// The format is consumed by tooling that generates verifier test fixtures:
//
//	Root Hash First Wave: <root in decimal>
//
//	Proof for address 0x1234...:
//	<calldata element>
//	...
//
// Each calldata element is written in decimal if it fits in 64 bits,
// and as its 0x-prefixed hex string otherwise.
package adump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/afelt"
)

// WriteWave writes the dump for tree to w.
// The label names the wave in the header line, e.g. "First Wave".
//
// Allocations are written in the tree's input order,
// including repeated records.
func WriteWave(w io.Writer, label string, tree *allotree.Tree) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "Root Hash %s: %s\n\n", label, tree.RootDecimal()); err != nil {
		return fmt.Errorf("failed to write root hash: %w", err)
	}

	for i, r := range tree.Allocations() {
		p, err := tree.Prove(r)
		if err != nil {
			return fmt.Errorf("failed to generate proof for allocation %d: %w", i, err)
		}

		if _, err := fmt.Fprintf(bw, "Proof for address %s:\n", r.Address); err != nil {
			return fmt.Errorf("failed to write proof header: %w", err)
		}

		for _, s := range p.Calldata() {
			if _, err := bw.WriteString(renderElement(s)); err != nil {
				return fmt.Errorf("failed to write proof: %w", err)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return fmt.Errorf("failed to write proof: %w", err)
			}
		}

		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write proof separator: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush proof dump: %w", err)
	}
	return nil
}

// WriteFile writes the dump for tree to path, replacing any existing file.
func WriteFile(path, label string, tree *allotree.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}

	if err := WriteWave(f, label, tree); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close dump file: %w", err)
	}
	return nil
}

func renderElement(hex string) string {
	e, err := afelt.ParseHex(hex)
	if err != nil {
		// Calldata is always rendered by afelt.Hex.
		panic(fmt.Errorf("BUG: calldata element %q did not parse: %w", hex, err))
	}

	if v, ok := afelt.Uint64(&e); ok {
		return strconv.FormatUint(v, 10)
	}
	return hex
}
