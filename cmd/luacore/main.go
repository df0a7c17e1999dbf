// Command luacore is the phase-driven CLI the runtime was built to
// exercise: lex, parse, compile, run, cache, and dump, mirroring
// playground/src/main.rs's verb dispatch one step at a time so each stage
// of the pipeline can be inspected on its own.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"

	"luacore/compiler"
	"luacore/lexer"
	"luacore/parser"
	"luacore/stdlib"
	"luacore/vm"
)

var (
	errColor    = color.New(color.FgRed, color.Bold)
	syntaxColor = color.New(color.FgYellow, color.Bold)
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: luacore <lex|parse|compile|run|cache|dump> <file>")
		os.Exit(1)
	}

	verb := os.Args[1]
	path := os.Args[2]

	source, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	switch verb {
	case "lex":
		runLex(string(source))
	case "parse":
		runParse(string(source))
	case "compile":
		runCompile(string(source))
	case "run":
		runRun(string(source))
	case "cache":
		runCache(string(source))
	case "dump":
		runDump(string(source))
	default:
		fmt.Fprintf(os.Stderr, "unknown verb %q\n", verb)
		os.Exit(1)
	}
}

func runLex(source string) {
	for _, tok := range lexer.Tokenize(source) {
		fmt.Printf("%-18s %-12q line %d col %d\n", tok.Type, tok.Value, tok.Line, tok.Column)
	}
}

func runParse(source string) {
	prog, perr := parser.New(lexer.Tokenize(source)).ParseProgram()
	if perr != nil {
		syntaxColor.Fprintf(os.Stderr, "SYNTAX ERROR: %s\n", perr.Error())
		os.Exit(1)
	}
	fmt.Println(spew.Sdump(prog))
}

func runCompile(source string) {
	prog, perr := parser.New(lexer.Tokenize(source)).ParseProgram()
	if perr != nil {
		syntaxColor.Fprintf(os.Stderr, "SYNTAX ERROR: %s\n", perr.Error())
		os.Exit(1)
	}
	fn := compiler.Compile(prog)
	fmt.Println(vm.Disassemble(fn.Chunk))
}

func runRun(source string) {
	prog, perr := parser.New(lexer.Tokenize(source)).ParseProgram()
	if perr != nil {
		syntaxColor.Fprintf(os.Stderr, "SYNTAX ERROR: %s\n", perr.Error())
		os.Exit(1)
	}
	fn := compiler.Compile(prog)

	globals := stdlib.Register(vm.NewTable())
	// Every chunk can see itself as _G, the way playground/src/main.rs
	// wires the globals table into its own globals before execution.
	globals.Insert(vm.NewString("_G"), globals)

	cfg, err := vm.LoadConfig(".luacore.yaml")
	if err != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	if _, verr := vm.Execute(fn, vm.Locals{}, globals, 0, cfg); verr != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %s\n", verr.Error())
		os.Exit(1)
	}
}

func runCache(source string) {
	prog, perr := parser.New(lexer.Tokenize(source)).ParseProgram()
	if perr != nil {
		syntaxColor.Fprintf(os.Stderr, "SYNTAX ERROR: %s\n", perr.Error())
		os.Exit(1)
	}
	fn := compiler.Compile(prog)

	cfg := vm.DefaultConfig()
	key, err := vm.CacheKey([]byte(source))
	if err != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if err := vm.SaveChunk(cfg.CacheDir, key, fn.Chunk); err != nil {
		errColor.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("cached %s under %s\n", key, cfg.CacheDir)
}

func runDump(source string) {
	prog, perr := parser.New(lexer.Tokenize(source)).ParseProgram()
	if perr != nil {
		syntaxColor.Fprintf(os.Stderr, "SYNTAX ERROR: %s\n", perr.Error())
		os.Exit(1)
	}
	fn := compiler.Compile(prog)
	fmt.Println(vm.Dump(fn))
}
