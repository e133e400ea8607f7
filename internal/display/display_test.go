package display

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"svfrontend/internal/diag"
)

func TestIsErrorKind(t *testing.T) {
	cases := map[diag.Kind]bool{
		diag.KindInput:     false,
		diag.KindCacheSoft: false,
		diag.KindCapacity:  false,
		diag.KindSyntax:    true,
		diag.KindSemantic:  true,
		diag.KindFatal:     true,
	}
	for k, want := range cases {
		if got := isErrorKind(k); got != want {
			t.Fatalf("isErrorKind(%v) = %v, want %v", k, got, want)
		}
	}
}

func TestSummaryZeroErrorsDoesNotPanic(t *testing.T) {
	Summary(0, 0, 0, 0)
}

func TestSummaryWithErrorsDoesNotPanic(t *testing.T) {
	Summary(2, 1, 1, 3)
}

func TestDiagnosticWithoutSourceLineDoesNotPanic(t *testing.T) {
	Diagnostic(diag.Diagnostic{Kind: diag.KindSemantic, File: "nonexistent.sv", Message: "boom"})
}

func TestPrintCodeSelectionMissingFileIsNoOp(t *testing.T) {
	// d.Line > 0 on a file that doesn't exist: printCodeSelection must
	// return cleanly rather than panic on the failed os.Open.
	printCodeSelection(diag.Diagnostic{File: "/definitely/missing.sv", Line: 3, Column: 1})
}

func TestWriteLogEmptyPathIsNoOp(t *testing.T) {
	if err := WriteLog("", nil, 0, 0, 0, 0); err != nil {
		t.Fatalf("WriteLog with empty path: %v", err)
	}
}

func TestWriteLogCreatesParentDirAndAppends(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "slpp_all", "surelog.log")

	diags := []diag.Diagnostic{
		{Kind: diag.KindSyntax, File: "top.sv", Message: "unexpected token", Line: 12, Column: 4},
	}
	if err := WriteLog(logPath, diags, 1, 0, 0, 0); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := WriteLog(logPath, nil, 0, 0, 0, 0); err != nil {
		t.Fatalf("WriteLog second append: %v", err)
	}

	contents, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	text := string(contents)
	if !strings.Contains(text, "unexpected token") {
		t.Fatalf("log contents = %q, want the diagnostic message", text)
	}
	if strings.Count(text, "errors,") != 2 {
		t.Fatalf("log contents = %q, want two summary lines (one per WriteLog call)", text)
	}
}
