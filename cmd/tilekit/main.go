// Tilekit CLI entry point
//
// Tilekit arranges desktop windows into named, keyboard-activated
// workspaces with deterministic tiling layouts.
package main

import "github.com/jbctechsolutions/tilekit/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
