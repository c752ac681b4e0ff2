package main

import (
	"fmt"
	"os"

	"github.com/OnlineSolution24/deployctl/internal/deployctl"
	"github.com/OnlineSolution24/deployctl/internal/tui"
)

func main() {
	// The wizard owns the terminal; everything else goes through the
	// flag-based command dispatcher.
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := tui.StartWizard(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := deployctl.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
