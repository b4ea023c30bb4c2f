package main

import "github.com/mvp-joe/csvfs/internal/cli"

func main() {
	cli.Execute()
}
