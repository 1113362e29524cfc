// Package maincmd implements the ember command-line driver: a REPL when run
// with no arguments, a file interpreter when run with one, and two
// diagnostic sub-commands (tokenize, disasm) for inspecting the compiler's
// intermediate output.
package maincmd

import (
	"context"
	"fmt"
	goscanner "go/scanner"
	"os"

	"github.com/mna/mainer"
)

const binName = "ember"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<path>]
       %[1]s tokenize <path>
       %[1]s disasm <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s tokenize <path>
       %[1]s disasm <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the %[1]s scripting language.

With no arguments, starts an interactive REPL that compiles and runs one
line at a time against a single long-lived virtual machine. With one
argument, reads and interprets the named file.

The <command> forms are for inspecting the compiler's intermediate output:
       tokenize <path>           Print the token stream produced by the
                                 scanner for the given file.
       disasm <path>             Print the disassembled bytecode chunk
                                 compiled from the given file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

Exit codes: 0 ok, 65 compile error, 70 runtime error, 74 I/O error, 64
invalid usage.
`, binName)
)

// exitUsage, exitCompileError, exitRuntimeError and exitIOError mirror the
// sysexits.h conventions the specification pins; mainer already defines
// Success.
const (
	exitUsage        mainer.ExitCode = 64
	exitCompileError mainer.ExitCode = 65
	exitRuntimeError mainer.ExitCode = 70
	exitIOError      mainer.ExitCode = 74
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) >= 2 {
		cmd := c.args[0]
		if cmd != "tokenize" && cmd != "disasm" {
			return fmt.Errorf("too many arguments")
		}
		if len(c.args) != 2 {
			return fmt.Errorf("%s: exactly one file must be provided", cmd)
		}
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	switch {
	case len(c.args) >= 1 && c.args[0] == "tokenize":
		if err := Tokenize(stdio, c.args[1]); err != nil {
			return exitIOError
		}
		return mainer.Success
	case len(c.args) >= 1 && c.args[0] == "disasm":
		if err := Disasm(stdio, c.args[1]); err != nil {
			if _, ok := err.(goscanner.ErrorList); ok {
				return exitCompileError
			}
			return exitIOError
		}
		return mainer.Success
	case len(c.args) == 0:
		return Repl(ctx, stdio)
	default:
		return RunFile(ctx, stdio, c.args[0])
	}
}
