package main

import (
	"context"
	"os"

	"github.com/ucmigrate/mountscan/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:]))
}
