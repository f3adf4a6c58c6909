package main

import "github.com/saldo-labs/akuntansid/internal/cli"

func main() {
	cli.Execute()
}
