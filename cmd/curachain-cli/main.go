package main

import "curachain/cli/cmd"

func main() {
	cmd.Execute()
}
