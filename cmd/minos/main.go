package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	traceFile string
)

var rootCmd = &cobra.Command{
	Use:   "minos",
	Short: "Run the teaching OS process/address-space simulator",
	Long: `minos boots a simulated machine, loads an executable image into the
root process and runs the process subsystem until the machine halts.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Write syscall trace spans to a file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	execute()
}
