package main

import (
	"os"

	"github.com/blackrocklabs/playasearch/cmd/playasearch"
)

func main() {
	if err := playasearch.Execute(); err != nil {
		os.Exit(1)
	}
}
