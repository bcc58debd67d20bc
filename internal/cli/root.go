// Package cli implements the issuectl command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sumire/issuetracker/internal/client"
)

// Output formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "issuectl",
	Short: "Command-line client for the issue tracker API",
	Long: `issuectl creates, lists, updates and deletes issues on an issue
tracker server. Each issue belongs to a named project.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from cmd/issuectl.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/issuectl/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Issue tracker base URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer access token")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: table, json, yaml")

	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "issuectl"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ISSUECTL")
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault("server", "http://localhost:8080")
	viper.SetDefault("token", "")
	viper.SetDefault("output", FormatTable)
}

func newClient() *client.Client {
	return client.New(viper.GetString("server"), viper.GetString("token"))
}

func outputFormat() (string, error) {
	switch f := viper.GetString("output"); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use table, json or yaml)", f)
	}
}
