// Package preprocess is a preprocessor stand-in: the smallest concrete
// scan over a source file that produces real macro records, include
// references, timescale directives, and body text, so the cache subsystem
// (internal/ppcache) has genuine values to round-trip. Full SystemVerilog
// macro-expansion semantics are out of scope; only enough of
// `define/`include/`timescale recognition survives to exercise every
// field of model.FileContent's preprocessor-stage section.
package preprocess

import (
	"strconv"
	"strings"

	"svfrontend/internal/diag"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

// Run scans source line by line, appending every recognized directive's
// effect into fc, and returns diagnostics for malformed directives. Lines
// that are not directives are copied verbatim into fc.Body.
func Run(fc *model.FileContent, source string, canonical *symbols.Table) []model.CachedError {
	var errs []model.CachedError
	var body strings.Builder

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "`define"):
			if rec, ok := parseDefine(trimmed, lineNo, canonical); ok {
				fc.Macros = append(fc.Macros, rec)
			} else {
				errs = append(errs, model.CachedError{
					Kind: int(diag.KindInput), Message: "malformed `define directive", FileSymbol: fc.FileSymbol, Line: lineNo,
				})
			}

		case strings.HasPrefix(trimmed, "`include"):
			path := extractQuoted(trimmed)
			if path == "" {
				errs = append(errs, model.CachedError{
					Kind: int(diag.KindInput), Message: "malformed `include directive", FileSymbol: fc.FileSymbol, Line: lineNo,
				})
				continue
			}
			recordInclude(fc, path, lineNo, canonical)

		case strings.HasPrefix(trimmed, "`timescale"):
			if t, ok := parseTimescale(trimmed, lineNo, fc.FileSymbol); ok {
				fc.TimeInfos = append(fc.TimeInfos, t)
			} else {
				errs = append(errs, model.CachedError{
					Kind: int(diag.KindInput), Message: "malformed `timescale directive", FileSymbol: fc.FileSymbol, Line: lineNo,
				})
			}

		default:
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}

	fc.Body = body.String()
	return errs
}

// parseDefine handles both “ `define NAME(arg1, arg2) tok... “ and
// “ `define NAME tok... “.
func parseDefine(trimmed string, lineNo int, canonical *symbols.Table) (model.MacroRecord, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "`define"))
	if rest == "" {
		return model.MacroRecord{}, false
	}

	fields := strings.Fields(rest)
	head := fields[0]

	rec := model.MacroRecord{StartLine: lineNo, EndLine: lineNo}

	if i := strings.IndexByte(head, '('); i >= 0 {
		name := head[:i]
		if name == "" {
			return model.MacroRecord{}, false
		}
		// The argument list may contain spaces, so it runs from the '(' to
		// the first ')' of rest, not to the end of the first field.
		end := strings.IndexByte(rest, ')')
		if end < i {
			return model.MacroRecord{}, false
		}
		rec.Name = canonical.Register(name)
		rec.Kind = model.MacroTypeWithArgs

		argsText := rest[i+1 : end]
		for _, a := range strings.Split(argsText, ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				rec.Arguments = append(rec.Arguments, canonical.Register(a))
			}
		}

		for _, tok := range strings.Fields(rest[end+1:]) {
			rec.Tokens = append(rec.Tokens, canonical.Register(tok))
		}
		return rec, true
	}

	rec.Name = canonical.Register(head)
	rec.Kind = model.MacroTypeNoArgs
	for _, tok := range fields[1:] {
		rec.Tokens = append(rec.Tokens, canonical.Register(tok))
	}
	return rec, true
}

// extractQuoted pulls the first "..."-quoted substring out of a line.
func extractQuoted(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}

// recordInclude registers path and brackets it with a push/pop
// IncludeFileInfo pair: every push at index i must be matched by exactly
// one pop at a later index j. The stand-in does not textually
// inline the included file's content; that is the orchestration layer's
// job when it recursively preprocesses the included path.
func recordInclude(fc *model.FileContent, path string, lineNo int, canonical *symbols.Table) {
	h := canonical.Register(path)
	fc.IncludePaths = append(fc.IncludePaths, h)

	openIdx := len(fc.IncludeFileInfos)
	fc.IncludeFileInfos = append(fc.IncludeFileInfos, model.IncludeFileInfo{
		Context:           model.IncludeContextInclude,
		SectionStartLine:  lineNo,
		SectionFileSymbol: h,
		OriginalStartLine: lineNo,
		Action:            model.IncludeActionPush,
		OpeningIndex:      openIdx,
	})
	closeIdx := len(fc.IncludeFileInfos)
	fc.IncludeFileInfos = append(fc.IncludeFileInfos, model.IncludeFileInfo{
		Context:           model.IncludeContextInclude,
		SectionFileSymbol: h,
		OriginalStartLine: lineNo,
		Action:            model.IncludeActionPop,
		OpeningIndex:      openIdx,
		ClosingIndex:      closeIdx,
	})
}

// parseTimescale handles "`timescale 1ns/1ps" style directives.
func parseTimescale(trimmed string, lineNo int, fileSymbol symbols.Handle) (model.TimeInfo, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "`timescale"))
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return model.TimeInfo{}, false
	}

	unit, unitValue, ok1 := parseTimeMagnitude(parts[0])
	precUnit, precValue, ok2 := parseTimeMagnitude(parts[1])
	if !ok1 || !ok2 {
		return model.TimeInfo{}, false
	}

	return model.TimeInfo{
		Kind:           model.TimeInfoKindFile,
		FileSymbol:     fileSymbol,
		Line:           lineNo,
		Unit:           unit,
		UnitValue:      unitValue,
		PrecisionUnit:  precUnit,
		PrecisionValue: precValue,
	}, true
}

var timeUnitSuffixes = []struct {
	suffix string
	unit   model.TimeUnit
}{
	{"fs", model.TimeUnitFemtoseconds},
	{"ps", model.TimeUnitPicoseconds},
	{"ns", model.TimeUnitNanoseconds},
	{"us", model.TimeUnitMicroseconds},
	{"ms", model.TimeUnitMilliseconds},
	{"s", model.TimeUnitSeconds},
}

func parseTimeMagnitude(s string) (model.TimeUnit, int, bool) {
	s = strings.TrimSpace(s)
	for _, ts := range timeUnitSuffixes {
		if strings.HasSuffix(s, ts.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, ts.suffix))
			n, err := strconv.Atoi(numStr)
			if err != nil {
				return 0, 0, false
			}
			return ts.unit, n, true
		}
	}
	return 0, 0, false
}
