// Command spisim runs the SPI master model from the command line. The run
// subcommand replays a flash fast-read against the behavioral flash device,
// driving the datapath through its register file the way firmware would.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spisim",
	Short: "spisim simulates a multi-mode SPI master datapath cycle by cycle.",
}

func main() {
	// Flag defaults may come from a .env file; a missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
