// Package main provides screenctl, the operator command for the screener.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "screenctl",
	Short: "JD-CV screener operations",
	Long:  "screenctl runs one-off screenings from local files and performs administrative maintenance against the configured database and backends.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
