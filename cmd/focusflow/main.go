package main

import "github.com/example/focusflow/internal/cli"

func main() {
	cli.Execute()
}
