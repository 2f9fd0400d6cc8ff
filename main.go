package main

import "github.com/mj1618/chrome-cli/cmd"

func main() {
	cmd.Execute()
}
