package main

import (
	"os"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
