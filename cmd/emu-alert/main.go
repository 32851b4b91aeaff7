package main

import "github.com/pfrederiksen/emu-alert/internal/cli"

func main() {
	cli.Execute()
}
