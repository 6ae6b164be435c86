package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"aleng/internal/diag"
	"aleng/internal/lexer"
	"aleng/internal/parser"
	"aleng/internal/runtime"
	"aleng/internal/stdlib"
	"aleng/internal/token"
)

// ---- repl command ----

func cmdRepl(args []string) int {
	opts, _, err := getopt.Getopts(args, "n")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	applyColorFlag(opts)

	prompt := color.New(color.FgGreen).Sprint("aleng> ")
	contPrompt := color.New(color.FgHiBlack).Sprint("...    ")
	hint := color.New(color.FgHiBlack)

	// History lives in ~/.aleng_history
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".aleng_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		return 1
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		color.New(color.FgCyan, color.Bold).Sprint("Aleng REPL"),
		hint.Sprint("(type 'exit' or Ctrl+D to quit)"))

	loader := runtime.NewModuleLoader(".")
	if err := stdlib.Register(loader); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	ev := runtime.New(runtime.WithOutput(rl.Stdout()), runtime.WithLoader(loader))

	var accumulated strings.Builder
	depth := 0

	for {
		if depth > 0 {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if depth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					depth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s\n", hint.Sprint("(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return 0
		}

		if depth == 0 && strings.TrimSpace(line) == "exit" {
			return 0
		}

		depth += blockDelta(line)
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		// Keep reading while a block is still open
		if depth > 0 {
			continue
		}
		depth = 0

		source := accumulated.String()
		accumulated.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		prog, diags := parser.Parse(source, "<repl>")
		writeDiags(rl.Stderr(), source, diags)
		if diag.HasErrors(diags) {
			continue
		}
		if _, err := ev.Run(prog); err != nil {
			var exit *runtime.ExitError
			if errors.As(err, &exit) {
				return exit.Code
			}
			printError(rl.Stderr(), source, err)
		}
	}
}

// blockDelta returns how many blocks line opens minus how many it closes.
// If, For, While and Fn open a block; End closes one.
func blockDelta(line string) int {
	tokens, _ := lexer.New(line, "<repl>").Tokenize()
	delta := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.KW_IF, token.KW_FOR, token.KW_WHILE, token.KW_FN:
			delta++
		case token.KW_END:
			delta--
		}
	}
	return delta
}
