package main

import (
	"fmt"
	"os"

	// Register database adapters
	_ "github.com/sadopc/tablescope/internal/adapter/duckdb"
	_ "github.com/sadopc/tablescope/internal/adapter/mysql"
	_ "github.com/sadopc/tablescope/internal/adapter/postgres"
	_ "github.com/sadopc/tablescope/internal/adapter/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
