package main

import (
	"os"

	"github.com/eltociear/NeuroSandboxWebUI/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
