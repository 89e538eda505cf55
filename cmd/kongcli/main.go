package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/kongcli/cmd/kongcli/commands"
	"github.com/fivetwenty-io/kongcli/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kongcli",
	Short: "Command line client for the Kong admin API",
	Long: `A command-line interface for interacting with the Kong admin API.

Manage consumers and their credentials, services, routes and plugins, or send
raw requests to the admin API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.kongcli/config.yml)")
	flags.String("url", "", "base URL of the admin API (env KONG_BASE)")
	flags.String("apikey", "", "API key sent as apikey header (env KONG_APIKEY)")
	flags.String("basic-auth", "", "basic auth credentials as user[:password], the password is prompted when omitted")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "timeout of each HTTP request")
	flags.Bool("no-cache", false, "disable memoization of collection listings")
	flags.Int("cache-size", constants.DefaultCacheSize, "number of memoized collection listings")

	// Bind flags to viper
	for _, name := range []string{"config", "url", "apikey", "basic-auth", "output", "verbose", "timeout", "no-cache", "cache-size"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	_ = viper.BindEnv("url", constants.EnvBaseURL)
	_ = viper.BindEnv("apikey", constants.EnvAPIKey)

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewRawCommand())
	rootCmd.AddCommand(commands.NewConsumersCommand())
	rootCmd.AddCommand(commands.NewServicesCommand())
	rootCmd.AddCommand(commands.NewRoutesCommand())
	rootCmd.AddCommand(commands.NewPluginsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.kongcli/config.yml
		viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
		viper.SetConfigType(constants.ConfigFileType)
		viper.SetConfigName(constants.ConfigFileName)
	}

	// Read in environment variables that match
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
