// Package loader reads assembly program files and resolves labels into a
// flat instruction sequence ready for the core.
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/mipsim/insts"
)

// Program is a loaded, label-free instruction sequence.
type Program struct {
	// Instructions is the ordered, resolved instruction list.
	Instructions []insts.Instruction

	// Labels maps label names to instruction indexes. No instruction in
	// the subset consumes labels, but they are legal in source files and
	// useful for inspection.
	Labels map[string]int
}

// Load reads and parses a program file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	prog, err := Parse(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Parse assembles program lines. Blank lines and "#" comments are
// skipped; "label:" prefixes are recorded and stripped before the rest
// of the line is parsed.
func Parse(lines []string) (*Program, error) {
	prog := &Program{Labels: map[string]int{}}

	for n, raw := range lines {
		line := stripComment(raw)

		if label, rest, found := strings.Cut(line, ":"); found {
			name := strings.TrimSpace(label)
			if name == "" || strings.ContainsAny(name, " \t") {
				return nil, fmt.Errorf("line %d: invalid label %q", n+1, label)
			}
			if _, dup := prog.Labels[name]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q", n+1, name)
			}
			prog.Labels[name] = len(prog.Instructions)
			line = rest
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		inst, err := insts.ParseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		prog.Instructions = append(prog.Instructions, inst)
	}

	return prog, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		return line[:i]
	}
	return line
}
