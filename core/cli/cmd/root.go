package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version stores the version string, set via SetVersion()
var version = "dev"

// SetVersion sets the version string (called from main.init())
func SetVersion(v string) {
	version = v
}

var (
	port     string
	logLevel int
	verbose  bool
	envFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "mongopad",
	Short:         "mongopad\nA scratchpad server for MongoDB queries",
	SilenceUsage:  true,
	SilenceErrors: true, // Errors are already logged, suppress Cobra's error output
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env when present)")
	cobra.OnInitialize(loadEnvironment)
}

// loadEnvironment loads environment variables from a .env file before any
// command runs; a missing default file is not an error
func loadEnvironment() {
	if envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
