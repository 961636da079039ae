// Package render assembles a block registry into a SystemVerilog testbench module.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/robert-at-pretension-io/svbench/internal/block"
)

const indent = "    "

// Options controls the module wrapper.
type Options struct {
	Module    string
	Timescale string
}

// Render writes the testbench to w. EXTERN lines come first, in registry
// order, followed by every non-empty procedural block in registry order.
func Render(w io.Writer, r *block.Registry, opts Options) error {
	if opts.Module == "" {
		return fmt.Errorf("module name is required")
	}

	var sb strings.Builder
	if opts.Timescale != "" {
		sb.WriteString("`timescale " + opts.Timescale + "\n\n")
	}
	sb.WriteString("module " + opts.Module + ";\n")

	blocks := r.Blocks()
	wroteDecl := false
	for _, b := range blocks {
		if b.Category != block.Extern {
			continue
		}
		for _, line := range b.Lines {
			if !wroteDecl {
				sb.WriteString("\n")
				wroteDecl = true
			}
			sb.WriteString(indent + line + "\n")
		}
	}

	for _, b := range blocks {
		if b.Category == block.Extern {
			continue
		}
		header, body, err := split(b)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			continue
		}
		sb.WriteString("\n" + indent + header + "\n")
		for _, line := range body {
			sb.WriteString(indent + indent + line + "\n")
		}
		sb.WriteString(indent + "end\n")
	}

	sb.WriteString("\nendmodule\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders to a string.
func String(r *block.Registry, opts Options) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, r, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// split returns the opening statement of a procedural block and its body.
// The clocked block carries its own opening statement as its first line.
func split(b *block.Block) (string, []string, error) {
	if b.Category == block.Always && b.Tagged(block.TagClock) {
		if len(b.Lines) == 0 {
			return "", nil, nil
		}
		return b.Lines[0], b.Lines[1:], nil
	}
	switch b.Category {
	case block.Initial:
		return "initial begin", b.Lines, nil
	case block.Always:
		return "always begin", b.Lines, nil
	case block.AlwaysComb:
		return "always_comb begin", b.Lines, nil
	case block.AlwaysLatch:
		return "always_latch begin", b.Lines, nil
	case block.AlwaysFF:
		if len(b.Lines) == 0 {
			return "", nil, nil
		}
		sens, _ := b.Metadata[block.TagSensitivity].(string)
		if sens == "" {
			return "", nil, fmt.Errorf("%s block has no %q metadata", b.Category, block.TagSensitivity)
		}
		return "always_ff @(" + sens + ") begin", b.Lines, nil
	}
	return "", nil, fmt.Errorf("cannot render %s block", b.Category)
}
