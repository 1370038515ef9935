package main

import (
	"github.com/vietddude/faultline/internal/cli"
)

func main() {
	cli.Execute()
}
