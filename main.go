package main

import (
	"os"

	"github.com/joyautomation/synapse-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if exit, ok := err.(*cmd.ExitError); ok {
			os.Exit(exit.Code)
		}

		cmd.RootCommand.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
