package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/emberlang/lang/vm"
)

// RunFile reads and interprets the file at path against a fresh VM, mapping
// the result to the specification's pinned exit codes.
func RunFile(_ context.Context, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return exitIOError
	}

	cfg, err := vm.LoadConfig()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitIOError
	}

	machine := vm.New(cfg, stdio.Stdout, stdio.Stderr)
	switch machine.Interpret(src) {
	case vm.CompileError:
		return exitCompileError
	case vm.RuntimeError:
		return exitRuntimeError
	default:
		return mainer.Success
	}
}

// Repl runs an interactive read-eval-print loop: one long-lived VM shared
// across every line, so declarations on one line are visible to the next,
// matching the rest of the clox-descended family's REPL behavior.
func Repl(ctx context.Context, stdio mainer.Stdio) mainer.ExitCode {
	cfg, err := vm.LoadConfig()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitIOError
	}
	machine := vm.New(cfg, stdio.Stdout, stdio.Stderr)

	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		select {
		case <-ctx.Done():
			return mainer.Success
		default:
		}

		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return mainer.Success
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		machine.Interpret([]byte(line))
	}
}
