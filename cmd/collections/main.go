package main

import "github.com/tellsiddh/collections/internal/cli"

func main() {
	cli.Execute()
}
