package main

import "github.com/epidlab/herdsim/cmd"

func main() {
	cmd.Execute()
}
