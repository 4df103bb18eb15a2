package main

import (
	"os"

	"github.com/kirillkom/bookmark-search/cmd/searchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
