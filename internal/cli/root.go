// Package cli implements the phago command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "phago",
	Short: "A living knowledge graph grown by an agent colony",
	Long: "Phago digests documents through a colony of short-lived agents that\n" +
		"extract concepts, wire associations Hebbian-style, and evolve under\n" +
		"fitness selection. The graph strengthens what gets used and forgets\n" +
		"what does not.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to yaml config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}
