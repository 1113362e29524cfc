// Command ember is the compiler and virtual machine driver for the Ember
// scripting language.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/mna/emberlang/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
