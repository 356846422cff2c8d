package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "voiceassist",
	Short: "Voice-call assistant response engine",
	Long: `voiceassist answers caller turns for voice calls: it detects language,
sentiment, abuse and intent, walks the call script, quotes the caller's
knowledge base and escalates to a human when needed.

Configuration:
  --config flag, or ./voiceassist.yaml, or /etc/voiceassist/voiceassist.yaml.
  Every key can be overridden with VOICEASSIST_<SECTION>_<KEY>, for example
  VOICEASSIST_KAFKA_ENABLED=true or VOICEASSIST_DB_HOST=mysql.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "voiceassist", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./voiceassist.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
