package main

import "github.com/pamonha-express/server/internal/cli"

func main() {
	cli.Execute()
}
