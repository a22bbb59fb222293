package main

import "github.com/01moynul/pharmastore-golang/internal/cli"

func main() {
	cli.Execute()
}
