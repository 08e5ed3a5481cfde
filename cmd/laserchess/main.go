package main

import "github.com/laserchess/relay/internal/cli"

func main() {
	cli.Execute()
}
