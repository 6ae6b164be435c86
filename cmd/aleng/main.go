// Command aleng is the CLI entry point for the Aleng toolchain.
//
// Usage:
//
//	aleng run    [-n] [path]      Run a file or workspace directory
//	aleng tokens [-j] <file>      Print tokens (-j for JSON)
//	aleng parse  <file>           Print AST as JSON
//	aleng repl   [-n]             Start interactive REPL
//
// -n disables coloured output.
package main

import (
	"errors"
	"fmt"
	"os"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"

	"aleng/internal/ast"
	"aleng/internal/diag"
	"aleng/internal/lexer"
	"aleng/internal/parser"
	"aleng/internal/runtime"
	"aleng/internal/stdlib"
	"aleng/internal/workspace"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches a sub-command. args[0] is the command name, which is
// also what getopt expects in argv[0].
func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	switch args[0] {
	case "tokens":
		return cmdTokens(args)
	case "parse":
		return cmdParse(args)
	case "run":
		return cmdRun(args)
	case "repl":
		return cmdRepl(args)
	case "-h", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", args[0])
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  aleng run    [-n] [path]     Run a file or workspace (default: find main.aleng)")
	fmt.Fprintln(os.Stderr, "  aleng tokens [-j] <file>     Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  aleng parse  <file>          Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  aleng repl   [-n]            Start interactive REPL")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -n     disable coloured output")
	fmt.Fprintln(os.Stderr, "  -j     print tokens as JSON")
}

func readFile(filename string) (string, bool) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		return "", false
	}
	return string(source), true
}

// fileArg returns the single positional file argument left after flags.
func fileArg(rest []string) (string, bool) {
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		return "", false
	}
	return rest[0], true
}

// ---- tokens command ----

func cmdTokens(args []string) int {
	opts, optind, err := getopt.Getopts(args, "j")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	jsonMode := false
	for _, opt := range opts {
		if opt.Option == 'j' {
			jsonMode = true
		}
	}
	filename, ok := fileArg(args[optind:])
	if !ok {
		return 1
	}
	source, ok := readFile(filename)
	if !ok {
		return 1
	}

	tokens, diags := lexer.New(source, filename).Tokenize()

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(tokens)
		printDiags(source, diags)
	}

	if diag.HasErrors(diags) {
		return 1
	}
	return 0
}

// ---- parse command ----

func cmdParse(args []string) int {
	_, optind, err := getopt.Getopts(args, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	filename, ok := fileArg(args[optind:])
	if !ok {
		return 1
	}
	source, ok := readFile(filename)
	if !ok {
		return 1
	}

	prog, diags := parser.Parse(source, filename)
	output := map[string]interface{}{
		"ast":         ast.NodeToMap(prog),
		"diagnostics": diagsToSlice(diags),
	}
	printJSON(output)

	if diag.HasErrors(diags) {
		return 1
	}
	return 0
}

// ---- run command ----

func cmdRun(args []string) int {
	opts, optind, err := getopt.Getopts(args, "n")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	applyColorFlag(opts)

	path := ""
	if rest := args[optind:]; len(rest) > 0 {
		path = rest[0]
	}
	ws, err := workspace.Discover(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	source, ok := readFile(ws.Entry)
	if !ok {
		return 1
	}

	prog, diags := parser.Parse(source, ws.Entry)
	printDiags(source, diags)
	if diag.HasErrors(diags) {
		return 1
	}

	loader := runtime.NewModuleLoader(ws.Root)
	if err := stdlib.Register(loader, ws.Libraries()...); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", workspace.ManifestName, err)
		return 1
	}

	ev := runtime.New(runtime.WithOutput(os.Stdout), runtime.WithLoader(loader))
	if _, err := ev.Run(prog); err != nil {
		var exit *runtime.ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}
		printError(os.Stderr, source, err)
		return 1
	}
	return 0
}

// applyColorFlag turns colour off for -n. Otherwise fatih/color decides
// from the terminal.
func applyColorFlag(opts []getopt.Option) {
	for _, opt := range opts {
		if opt.Option == 'n' {
			color.NoColor = true
		}
	}
}
