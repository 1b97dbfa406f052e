// Package text provides text formatting utilities for CLI commands.
package text

import (
	"strings"
)

// Indentation is the standard indentation for CLI help text.
const Indentation = `  `

// LongDesc normalizes a command's long description: surrounding blank space is removed and
// hard-wrapped paragraphs are kept as written.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().dedent().string
}

// Examples normalizes a command's examples: every line is trimmed and indented once.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().indent().string
}

type normalizer struct {
	string
}

func (s normalizer) trim() normalizer {
	s.string = strings.TrimSpace(s.string)

	return s
}

// dedent strips the leading whitespace of every line, so descriptions may be indented in
// source to match the surrounding code.
func (s normalizer) dedent() normalizer {
	lines := strings.Split(s.string, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " \t")
	}
	s.string = strings.Join(lines, "\n")

	return s
}

func (s normalizer) indent() normalizer {
	indentedLines := make([]string, 0, strings.Count(s.string, "\n")+1)
	for line := range strings.SplitSeq(s.string, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			indentedLines = append(indentedLines, "")
			continue
		}
		indentedLines = append(indentedLines, Indentation+trimmed)
	}
	s.string = strings.Join(indentedLines, "\n")

	return s
}
