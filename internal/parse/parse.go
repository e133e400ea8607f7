// Package parse is a parser stand-in: a scan over a file content's
// preprocessed body text that recognizes SystemVerilog's top-level block
// keywords (module/package/program/class/interface/primitive/checker/
// config) and materializes them as model.DesignElement values with real
// parse-tree nodes, so internal/parsecache has genuine values to
// round-trip. Grammar-level correctness inside a block body is out of
// scope; only the block's name and span are recovered.
package parse

import (
	"strings"

	"svfrontend/internal/diag"
	"svfrontend/internal/model"
	"svfrontend/internal/symbols"
)

var blockKeywords = map[string]model.ElementKind{
	"module":    model.ElementKindModule,
	"package":   model.ElementKindPackage,
	"program":   model.ElementKindProgram,
	"class":     model.ElementKindClass,
	"interface": model.ElementKindInterface,
	"primitive": model.ElementKindPrimitive,
	"checker":   model.ElementKindChecker,
	"config":    model.ElementKindConfig,
}

type openBlock struct {
	kind        model.ElementKind
	name        string
	beginLine   int
	beginColumn int
	rootNode    model.NodeID
}

// Run scans fc.Body for design-element blocks, appending a DesignElement
// and a root arena node for each one found, and returns diagnostics for
// unterminated blocks and unmatched end keywords. uniqueIDBase seeds UniqueID assignment so IDs stay
// distinct across files sharing one Design registry.
func Run(fc *model.FileContent, canonical *symbols.Table, uniqueIDBase uint64) []model.CachedError {
	var errs []model.CachedError
	var stack []openBlock
	var nextID uint64

	lines := strings.Split(fc.Body, "\n")
	for i, line := range lines {
		lineNo := i + 1
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		head := fields[0]

		if strings.HasPrefix(head, "end") {
			kwName := strings.TrimPrefix(head, "end")
			if _, ok := blockKeywords[kwName]; ok {
				if len(stack) == 0 {
					errs = append(errs, model.CachedError{
						Kind: int(diag.KindSyntax), Message: "unmatched end" + kwName, FileSymbol: fc.FileSymbol, Line: lineNo,
					})
					continue
				}

				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				de := model.DesignElement{
					NameSymbol:   canonical.Register(top.name),
					FileSymbol:   fc.FileSymbol,
					Kind:         top.kind,
					UniqueID:     uniqueIDBase + nextID,
					BeginLine:    top.beginLine,
					BeginColumn:  top.beginColumn,
					EndLine:      lineNo,
					EndColumn:    0,
					RootNodeID:   top.rootNode,
					ParentNodeID: model.InvalidNode,
				}
				nextID++
				fc.DesignElements = append(fc.DesignElements, de)
			}
			continue
		}

		if kind, ok := blockKeywords[head]; ok {
			name := blockName(fields)
			root := fc.Arena.Add(model.Node{
				Kind: model.NodeKindParseDesignElement,
				Text: canonical.Register(name),
				Line: lineNo,
			})
			stack = append(stack, openBlock{kind: kind, name: name, beginLine: lineNo, rootNode: root})
			continue
		}

		for _, f := range fields {
			fc.Arena.Add(model.Node{
				Kind: model.NodeKindParseToken,
				Text: canonical.Register(f),
				Line: lineNo,
			})
		}
	}

	for _, open := range stack {
		errs = append(errs, model.CachedError{
			Kind: int(diag.KindSyntax), Message: "unterminated " + open.name + " block", FileSymbol: fc.FileSymbol, Line: open.beginLine,
		})
	}

	return errs
}

// blockName extracts the identifier following the block keyword, stripping
// a trailing "#(" parameter-list opener or ";" if present.
func blockName(fields []string) string {
	if len(fields) < 2 {
		return "<anonymous>"
	}
	name := fields[1]
	name = strings.TrimSuffix(name, ";")
	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "<anonymous>"
	}
	return name
}
