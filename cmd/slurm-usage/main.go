package main

import (
	"os"

	"slurm_usage/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
