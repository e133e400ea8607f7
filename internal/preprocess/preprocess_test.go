package preprocess

import (
	"strings"
	"testing"

	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

func newFC(canonical *symbols.Table) *model.FileContent {
	return model.NewFileContent(canonical.Register("work"), 1, canonical.Register("top.sv"))
}

func TestRunRecognizesDefineNoArgs(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`define WIDTH 8\nmodule top; endmodule\n", canonical)
	if len(errs) != 0 {
		t.Fatalf("Run returned errors: %v", errs)
	}
	if len(fc.Macros) != 1 {
		t.Fatalf("Macros = %v, want 1 entry", fc.Macros)
	}
	m := fc.Macros[0]
	if canonical.Symbol(m.Name) != "WIDTH" || m.Kind != model.MacroTypeNoArgs {
		t.Fatalf("macro = %+v, want name WIDTH, kind NoArgs", m)
	}
	if len(m.Tokens) != 1 || canonical.Symbol(m.Tokens[0]) != "8" {
		t.Fatalf("macro tokens = %v, want [8]", m.Tokens)
	}
}

func TestRunRecognizesDefineWithArgs(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`define MAX(a, b) a\n", canonical)
	if len(errs) != 0 {
		t.Fatalf("Run returned errors: %v", errs)
	}
	m := fc.Macros[0]
	if m.Kind != model.MacroTypeWithArgs {
		t.Fatalf("macro kind = %v, want WithArgs", m.Kind)
	}
	if len(m.Arguments) != 2 || canonical.Symbol(m.Arguments[0]) != "a" || canonical.Symbol(m.Arguments[1]) != "b" {
		t.Fatalf("macro arguments = %v, want [a b]", m.Arguments)
	}
}

func TestRunMalformedDefineProducesError(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`define\n", canonical)
	if len(errs) != 1 {
		t.Fatalf("Run returned %d errors, want 1", len(errs))
	}
}

func TestRunRecordsIncludeAsBalancedPushPop(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`include \"defs.svh\"\n", canonical)
	if len(errs) != 0 {
		t.Fatalf("Run returned errors: %v", errs)
	}
	if len(fc.IncludePaths) != 1 || canonical.Symbol(fc.IncludePaths[0]) != "defs.svh" {
		t.Fatalf("IncludePaths = %v, want [defs.svh]", fc.IncludePaths)
	}
	if len(fc.IncludeFileInfos) != 2 {
		t.Fatalf("IncludeFileInfos = %v, want a push/pop pair", fc.IncludeFileInfos)
	}
	if fc.IncludeFileInfos[0].Action != model.IncludeActionPush || fc.IncludeFileInfos[1].Action != model.IncludeActionPop {
		t.Fatalf("IncludeFileInfos actions = %v, want [push pop]", fc.IncludeFileInfos)
	}
	if fc.IncludeFileInfos[1].OpeningIndex != fc.IncludeFileInfos[0].OpeningIndex {
		t.Fatalf("pop's OpeningIndex does not match its push's index")
	}
}

func TestRunMalformedIncludeProducesError(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`include missing_quotes\n", canonical)
	if len(errs) != 1 {
		t.Fatalf("Run returned %d errors, want 1", len(errs))
	}
}

func TestRunRecognizesTimescale(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`timescale 1ns/1ps\n", canonical)
	if len(errs) != 0 {
		t.Fatalf("Run returned errors: %v", errs)
	}
	if len(fc.TimeInfos) != 1 {
		t.Fatalf("TimeInfos = %v, want 1 entry", fc.TimeInfos)
	}
	ti := fc.TimeInfos[0]
	if ti.Unit != model.TimeUnitNanoseconds || ti.UnitValue != 1 {
		t.Fatalf("timescale unit = %+v, want 1ns", ti)
	}
	if ti.PrecisionUnit != model.TimeUnitPicoseconds || ti.PrecisionValue != 1 {
		t.Fatalf("timescale precision = %+v, want 1ps", ti)
	}
}

func TestRunMalformedTimescaleProducesError(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	errs := Run(fc, "`timescale garbage\n", canonical)
	if len(errs) != 1 {
		t.Fatalf("Run returned %d errors, want 1", len(errs))
	}
}

func TestRunCopiesNonDirectiveLinesIntoBody(t *testing.T) {
	canonical := symbols.NewTable()
	fc := newFC(canonical)

	source := "`define X 1\nmodule top;\nendmodule\n"
	Run(fc, source, canonical)

	if strings.Contains(fc.Body, "`define") {
		t.Fatalf("Body retained a directive line: %q", fc.Body)
	}
	if !strings.Contains(fc.Body, "module top;") || !strings.Contains(fc.Body, "endmodule") {
		t.Fatalf("Body dropped non-directive content: %q", fc.Body)
	}
}
