package main

import "firmware-sources/internal/cli"

func main() {
	cli.Execute()
}
