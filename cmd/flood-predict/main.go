// Flood-predict is a client for a flood probability prediction service.
//
// It collects the twenty flood risk indicators the service's model expects,
// posts them to the service and shows the predicted flood probability. The
// form is available in the terminal, in the browser and as a one-shot
// command for scripts.
//
// Usage:
//
//	flood-predict [command] [flags]
//
// Running without arguments launches the interactive terminal form.
// See 'flood-predict --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ahlyab/flood-prediction/internal/config"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/submission"
	"github.com/Ahlyab/flood-prediction/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		// failure boxes were already printed
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flood-predict",
	Short: "Flood probability prediction client",
	Long: `A client for a flood probability prediction service.

Fill in twenty flood risk indicators and ask the service for the predicted
flood probability, either in an interactive terminal form, in a browser
form served by 'flood-predict serve', or in one shot with 'flood-predict predict'.

If no command is specified, the interactive form will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the terminal form when no subcommand provided
		return runWizard(cmd, args)
	},
}

// Global flags
var (
	configPath string
	serviceURL string
	timeout    time.Duration
	logLevel   string
	policyName string
)

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// main prints errors once
	rootCmd.SilenceErrors = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: "+defaultConfigPathHint()+")")
	flags.StringVar(&serviceURL, "url", "", "Prediction service base URL (overrides "+config.EnvBaseURL+")")
	flags.DurationVar(&timeout, "timeout", 0, "Request timeout, 0 disables it (default from config: 30s)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: silent)")
	flags.StringVar(&policyName, "policy", "", "Overlapping submissions: "+strings.Join(submission.Policies(), ", "))

	rootCmd.AddCommand(versionCmd)
}

func defaultConfigPathHint() string {
	path, err := config.GetConfigPath()
	if err != nil {
		return "flood-predict/config.yaml in the user config dir"
	}
	return path
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flood-predict %s\n", version.Full())
	},
}
