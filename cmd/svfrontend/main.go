// Command svfrontend is the entrypoint: resolve the executable's own
// directory, normalize the command line, run the compile pipeline, and
// report the resulting return-code bitmask.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"svfrontend/internal/batch"
	"svfrontend/internal/compile"
	"svfrontend/internal/diag"
	"svfrontend/internal/display"
	"svfrontend/internal/normalize"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	for _, a := range args {
		switch a {
		case "--help":
			printHelp()
			return 0
		case "--version":
			display.PrintInfoMessage("VERSION", "svfrontend "+version)
			return 0
		}
	}

	var batchFile string
	var filtered []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-batch" && i+1 < len(args) {
			batchFile = args[i+1]
			i++
			continue
		}
		filtered = append(filtered, args[i])
	}

	cwd, err := os.Getwd()
	if err != nil {
		display.PrintErrorMessage("FATAL", err)
		return 0x1
	}

	exeDir := executableDir()

	if batchFile != "" {
		return runBatch(batchFile, exeDir, cwd)
	}

	return runOnce(filtered, exeDir, cwd)
}

func runOnce(args []string, exeDir, cwd string) int {
	state, err := normalize.Normalize(args, exeDir, cwd, "")
	if err != nil {
		display.PrintErrorMessage("FATAL", err)
		return 0x1
	}

	bag := diag.NewBag()
	mergeNormalizerDiagnostics(bag, state.Diagnostics)

	compiler := compile.NewCompiler(state, buildIdentifier(), "work")
	_, compileBag := compiler.Run(context.Background())
	bag.Merge(compileBag)

	reportBag(bag, state.LogPath)

	return bag.ReturnCode()
}

func runBatch(batchFile, exeDir, cwd string) int {
	state, err := normalize.Normalize(nil, exeDir, cwd, "")
	if err != nil {
		display.PrintErrorMessage("FATAL", err)
		return 0x1
	}

	runLine := func(ctx context.Context, lineArgs []string) int {
		lineState, err := normalize.Normalize(lineArgs, exeDir, cwd, "")
		if err != nil {
			return 0x1
		}

		bag := diag.NewBag()
		mergeNormalizerDiagnostics(bag, lineState.Diagnostics)

		compiler := compile.NewCompiler(lineState, buildIdentifier(), "work")
		_, compileBag := compiler.Run(ctx)
		bag.Merge(compileBag)

		reportBag(bag, lineState.LogPath)
		return bag.ReturnCode()
	}

	threadCount := state.ThreadCount
	if threadCount < 1 {
		threadCount = 1
	}

	_, aggregate, err := batch.Run(context.Background(), batchFile, state.OutputDir, threadCount, runLine)
	if err != nil {
		display.PrintErrorMessage("FATAL", err)
		return 0x1
	}

	return aggregate
}

// mergeNormalizerDiagnostics folds the normalizer's own pre-compile
// diagnostics into bag so a missing source file or library path can still
// reach the exit-code bitmask computed from bag alone. "error"-kind
// findings become KindInput diagnostics, deferred to reportBag's display
// pass; "warning"-kind findings are printed immediately since nothing else
// will ever print them.
func mergeNormalizerDiagnostics(bag *diag.Bag, diags []normalize.Diagnostic) {
	for _, d := range diags {
		if d.Kind == "error" {
			bag.Add(diag.Diagnostic{Kind: diag.KindInput, Message: d.Message})
		} else {
			display.PrintWarningMessage("INPUT WARNING", d.Message)
		}
	}
}

func reportBag(bag *diag.Bag, logPath string) {
	warnings := 0
	for _, d := range bag.Items() {
		display.Diagnostic(d)
		// Syntax/semantic/fatal/input increment the return-code counters;
		// cache-soft/capacity findings are reported but do not fail the
		// build, so only those are tallied as warnings in the summary line.
		if d.Kind != diag.KindSyntax && d.Kind != diag.KindSemantic && d.Kind != diag.KindFatal && d.Kind != diag.KindInput {
			warnings++
		}
	}

	nbSyntax, nbError, nbFatal := bag.Counts()
	display.Summary(nbSyntax, nbError, nbFatal, warnings)

	if err := display.WriteLog(logPath, bag.Items(), nbSyntax, nbError, nbFatal, warnings); err != nil {
		display.PrintWarningMessage("LOG", "could not write log file: "+err.Error())
	}
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func buildIdentifier() string {
	return version
}

func printHelp() {
	fmt.Println("svfrontend [options] file...")
	fmt.Println()
	fmt.Println("  -D<name>[=value]      define a macro")
	fmt.Println("  -I<dir>               add an include directory")
	fmt.Println("  -y<dir>               add a library search directory")
	fmt.Println("  +incdir+<dir>...      add include directories")
	fmt.Println("  +define+<name>...     define macros")
	fmt.Println("  +libext+<ext>...      set library file extensions")
	fmt.Println("  -f <file>             read additional arguments from a file")
	fmt.Println("  -o <dir>              set the output directory")
	fmt.Println("  -cache <dir>          set the cache directory")
	fmt.Println("  -nocache              disable caching")
	fmt.Println("  -nohash               accept existing caches without integrity checks; use unhashed cache paths")
	fmt.Println("  -fileunit             compile each file as its own unit (slpp_unit/)")
	fmt.Println("  -l <file>             set the log file path")
	fmt.Println("  -mt <n>|max           set the worker thread count")
	fmt.Println("  -batch <file>         run one compilation per line of a batch file")
	fmt.Println("  -parseonly, -sepcomp, -noparse, -nocomp, -noelab, -elabuhdm, -link")
	fmt.Println("                        select which pipeline stages run")
}
