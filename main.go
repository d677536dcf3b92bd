package main

import "github.com/dpshade/prompt-vault/cmd"

func main() {
	cmd.Execute()
}
