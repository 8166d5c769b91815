package main

import "github.com/dictscan/dictscan/cmd"

func main() {
	cmd.Execute()
}
