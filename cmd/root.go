package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetlink/internal/config"
)

// rootCmd represents the base command for the meetlink application
var rootCmd = &cobra.Command{
	Use:   "meetlink",
	Short: "Creates Google Meet spaces on demand",
	Long: `meetlink is a small HTTP service that creates a Google Meet space per request
and returns its join URL.

It can run as:
  - An HTTP server exposing GET /api/create-meet (default)
  - An MCP (Model Context Protocol) server for AI assistants
  - A one-shot CLI that prints a new meeting URL`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetlink version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file to load before reading the environment; missing files are ignored")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
