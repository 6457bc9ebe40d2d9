/*
Package main is the entry point for the drivethru CLI.

Usage:

	drivethru [command]

Available Commands:

	serve       Run the lane API server
	chat        Take orders interactively in the terminal
	tui         Drive a running lane from a full-screen simulator
	search      Search the menu
	menu        Print the menu board
	eval        Run scripted evaluation scenarios
	models      List model providers and test connectivity
*/
package main

import (
	"context"
	"fmt"
	"os"

	"drivethru/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
