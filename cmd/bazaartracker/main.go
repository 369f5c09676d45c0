package main

import "bazaar-tracker/internal/cli"

func main() {
	cli.Execute()
}
