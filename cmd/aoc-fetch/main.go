package main

import cmd "github.com/rohmanhakim/aoc-fetch/internal/cli"

func main() {
	cmd.Execute()
}
