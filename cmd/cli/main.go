package main

import "github.com/TechNxt05/revtrust/pkg/cli"

func main() {
	cli.Execute()
}
