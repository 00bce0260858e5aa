package main

import (
	"github.com/XadielF/hipotrack/internal/cli"
)

func main() {
	cli.Execute()
}
