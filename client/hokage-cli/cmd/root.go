package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "hokage-cli",
	Short: "A CLI client to interact with the Hokage backup assurance platform",
	Long:  `A command-line interface for logging in, requesting failure diagnoses and following a diagnosis through the triage pipeline.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the platform API")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("HOKAGE_TOKEN"), "JWT obtained from 'hokage-cli login'")
}
