package main

import "doubloon-tracker/cmd"

func main() {
	cmd.Execute()
}
