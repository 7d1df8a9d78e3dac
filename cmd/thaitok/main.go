package main

import (
	"os"

	"github.com/thaisearch/thaitok/cmd/thaitok/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
