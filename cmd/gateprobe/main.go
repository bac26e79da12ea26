package main

import "gateprobe/internal/cli"

func main() {
	cli.Execute()
}
