package main

import (
	"os"

	"github.com/xflash-panda/host-address/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
