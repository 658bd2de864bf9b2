package main

import "github.com/wildstyl3r/collim/internal/cli"

func main() {
	cli.Execute()
}
