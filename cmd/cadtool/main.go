// cadtool is a CLI utility for inspecting, laying out and evaluating CAD
// assets.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "layout":
		err = cmdLayout(args)
	case "eval":
		err = cmdEval(args)
	case "sample":
		err = cmdSample(args)
	case "watch":
		err = cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cadtool - CAD asset tessellation utility

Usage:
  cadtool <command> [options]

Commands:
  info <file.zcad>                 Show library counts and format version
  layout [flags] <file.zcad>       Lay out every body and print atlas stats
  eval [flags] <file.zcad>         Lay out and evaluate curves, trims and surfaces
  sample [-version v] <out.zcad>   Write a sample asset covering every surface kind
  watch [flags] <file.zcad>        Re-layout whenever the file changes

Common flags:
  -config <path>   Config file (default: ./midgard-cad.yaml or user config dir)
  -debug           Debug logging
  -lod <n>         Level of detail override
  -backend <name>  Evaluation backend: cpu or gl

Examples:
  cadtool sample part.zcad
  cadtool layout -lod 2 part.zcad
  cadtool eval -images out/ -format png part.zcad
  cadtool eval -backend gl part.zcad`)
}
