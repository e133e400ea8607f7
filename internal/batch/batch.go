// Package batch is a batch driver that reads a batch file, one command
// line per non-empty line, and invokes a full compilation as a
// sub-invocation per line, accumulating the bitwise-OR of per-line return
// codes. Uses the same golang.org/x/sync/errgroup bounded pool as
// internal/compile for per-line concurrency.
package batch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RunFunc invokes one full compilation for a line's normalized args and
// reports the return-code bitmask (bit 0 fatal, bit 1 syntax, bit 2
// semantic).
type RunFunc func(ctx context.Context, args []string) int

// LineResult is the outcome of one batch line.
type LineResult struct {
	Line       string
	Args       []string
	ReturnCode int
	Err        error
}

// Run reads batchFile, splits it into non-empty lines, derives each line's
// effective argument list (the `-cd`/`-o` prepending rule), and invokes run
// for each, bounded to threadCount concurrent lines.
//
// os.Chdir mutates process-wide state, so it cannot be safely called from
// unsynchronized goroutines; chdirMu below serializes the whole
// chdir-invoke-restore sequence, so run is invoked for one line at a time
// and only the argument derivation overlaps across lines.
func Run(ctx context.Context, batchFile, outputDir string, threadCount int, run RunFunc) ([]LineResult, int, error) {
	lines, err := readNonEmptyLines(batchFile)
	if err != nil {
		return nil, 0, err
	}

	results := make([]LineResult, len(lines))
	var chdirMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threadCount)

	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			args, workDir := effectiveArgs(line, outputDir)

			chdirMu.Lock()
			orig, err := os.Getwd()
			if err != nil {
				chdirMu.Unlock()
				results[i] = LineResult{Line: line, Err: err}
				return nil
			}

			if workDir != "" {
				if err := os.Chdir(workDir); err != nil {
					chdirMu.Unlock()
					results[i] = LineResult{Line: line, Args: args, Err: err}
					return nil
				}
			}

			code := run(gctx, args)

			os.Chdir(orig)
			chdirMu.Unlock()

			results[i] = LineResult{Line: line, Args: args, ReturnCode: code}
			return nil
		})
	}

	_ = g.Wait()

	aggregate := 0
	for _, r := range results {
		aggregate |= r.ReturnCode
	}

	return results, aggregate, nil
}

func readNonEmptyLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// effectiveArgs splits line respecting quoting, detects an embedded `-cd
// <dir>`, and prepends `-o <outputDir>` (absolute `-cd`) or
// `-o <outputDir>/<cd-dir>` (relative `-cd`). It returns the final
// argument list and the working directory `-cd` named, if any.
func effectiveArgs(line, outputDir string) ([]string, string) {
	fields := splitRespectingQuotes(line)

	var cdDir string
	for i, f := range fields {
		if f == "-cd" && i+1 < len(fields) {
			cdDir = fields[i+1]
			break
		}
	}

	var odir string
	if cdDir == "" || filepath.IsAbs(cdDir) {
		odir = outputDir
	} else {
		odir = filepath.Join(outputDir, cdDir)
	}

	return append([]string{"-o", odir}, fields...), cdDir
}

// splitRespectingQuotes tokenizes on whitespace but keeps a double- or
// single-quoted span together as one field.
func splitRespectingQuotes(line string) []string {
	var fields []string
	var cur strings.Builder
	var quote byte
	inField := false

	flush := func() {
		if inField {
			fields = append(fields, cur.String())
			cur.Reset()
			inField = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inField = true
		case c == ' ' || c == '\t':
			flush()
		default:
			inField = true
			cur.WriteByte(c)
		}
	}
	flush()

	return fields
}
