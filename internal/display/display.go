// Package display renders diagnostic containers and phase progress to the
// terminal. Grounded almost directly on logging/display.go's banner/
// code-selection-caret rendering, generalized from Chai's single
// CompileMessage type to internal/diag's six-kind taxonomy, and from a
// fixed compile-msg-kind string table to diag.Kind.String().
package display

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"svfrontend/internal/diag"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = successColorFG
)

// PrintErrorMessage prints a standard Go error to the console with tag as
// its banner.
func PrintErrorMessage(tag string, err error) {
	errorStyleBG.Print(tag)
	errorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console.
func PrintWarningMessage(tag, msg string) {
	warnStyleBG.Print(tag)
	warnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the console.
func PrintInfoMessage(tag, msg string) {
	successStyleBG.Print(tag)
	successColorFG.Println(" " + msg)
}

// Phase renders a spinner-style banner announcing the start of a pipeline
// phase ("preprocess", "parse", "elaborate", ...).
func Phase(name string) *pterm.SpinnerPrinter {
	sp, _ := pterm.DefaultSpinner.Start(name)
	return sp
}

// Diagnostic renders one diagnostic's banner and, if d.Line is positive,
// a code-selection caret under the offending line (logging/display.go's
// displayBanner/displayCodeSelection, generalized to diag.Diagnostic).
func Diagnostic(d diag.Diagnostic) {
	fmt.Print("\n-- ")

	kindStr := strings.ToUpper(d.Kind.String())
	var kindLen int
	if isErrorKind(d.Kind) {
		errorStyleBG.Print(kindStr + " ERROR")
		kindLen = len(kindStr) + 7
	} else {
		warnStyleBG.Print(kindStr + " WARNING")
		kindLen = len(kindStr) + 9
	}

	fmt.Print(" ")

	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	dashCount := bannerLen - len(d.File) - kindLen - 1
	if dashCount < 0 {
		dashCount = 0
	}
	fmt.Print(strings.Repeat("-", dashCount) + " ")
	infoColorFG.Println(d.File)

	fmt.Println(d.Message)

	if d.Line > 0 {
		printCodeSelection(d)
	}
}

func isErrorKind(k diag.Kind) bool {
	return k == diag.KindSyntax || k == diag.KindSemantic || k == diag.KindFatal
}

// printCodeSelection reads d.File and prints the single offending line
// with a leading line number and a caret underneath d.Column.
func printCodeSelection(d diag.Diagnostic) {
	f, err := os.Open(d.File)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var line string
	for lineNumber := 1; sc.Scan(); lineNumber++ {
		if lineNumber == d.Line {
			line = sc.Text()
			break
		}
	}

	fmt.Println()
	numWidth := len(strconv.Itoa(d.Line)) + 1
	fmtStr := "%-" + strconv.Itoa(numWidth) + "v"
	infoColorFG.Print(fmt.Sprintf(fmtStr, d.Line))
	fmt.Print("|  ")
	fmt.Println(line)

	fmt.Print(strings.Repeat(" ", numWidth), "|  ")
	col := d.Column
	if col < 0 {
		col = 0
	}
	fmt.Print(strings.Repeat(" ", col))
	errorColorFG.Println("^")
	fmt.Println()
}

// Summary prints the final "N errors, M warnings" line; the caller also
// sees the same statistics through the CLI return code and the log file.
func Summary(nbSyntax, nbError, nbFatal, warnings int) {
	total := nbSyntax + nbError + nbFatal
	if total == 0 {
		PrintInfoMessage("DONE", fmt.Sprintf("0 errors, %d warnings", warnings))
		return
	}
	PrintErrorMessage("DONE", fmt.Errorf("%d errors, %d warnings", total, warnings))
}

// WriteLog appends a plain-text rendering of diags, followed by the summary
// line, to path, creating its parent directory if needed. No color codes or
// terminal escapes reach the file; each diagnostic is one banner line plus
// its message, followed by an "at line N, column M" line when its Line is
// positive.
func WriteLog(path string, diags []diag.Diagnostic, nbSyntax, nbError, nbFatal, warnings int) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, d := range diags {
		kindStr := strings.ToUpper(d.Kind.String())
		if isErrorKind(d.Kind) {
			fmt.Fprintf(w, "-- %s ERROR -- %s\n%s\n", kindStr, d.File, d.Message)
		} else {
			fmt.Fprintf(w, "-- %s WARNING -- %s\n%s\n", kindStr, d.File, d.Message)
		}
		if d.Line > 0 {
			fmt.Fprintf(w, "  at line %d, column %d\n", d.Line, d.Column)
		}
	}

	total := nbSyntax + nbError + nbFatal
	fmt.Fprintf(w, "%d errors, %d warnings\n", total, warnings)

	return w.Flush()
}
