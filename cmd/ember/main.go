package main

import (
	"fmt"
	"os"

	"github.com/emberlang/ember/pkg/interpreter"
	"github.com/emberlang/ember/pkg/parser"
)

const cliToolVersion = "ember 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	default:
		return runEntry(args)
	}
}

func runEntry(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "ember run requires exactly one source file")
		return 1
	}
	return executeFile(args[0])
}

func executeFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
		return 1
	}

	program, a, err := parser.Parse(string(src), path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sink := interpreter.NewConsoleSink(path)
	interp := interpreter.New(sink)
	defer interp.Release()

	if err := interp.Run(program, a); err != nil {
		// The sink already wrote the formatted message and call stack.
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  ember run <file>")
	fmt.Fprintln(os.Stderr, "  ember <file>")
	fmt.Fprintln(os.Stderr, "  ember version")
}
