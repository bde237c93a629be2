package main

import "github.com/schemafuzz/schemafuzz/cmd"

func main() {
	cmd.Execute()
}
