package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cvparse",
		Short:         "Extract structured résumé data with an LLM",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(parseCmd(), chunkCmd())
	return root
}
