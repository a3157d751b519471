package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bosves/bosves-api/internal/infrastructure/config"
)

// Default locations, overridable with flags or BOSVES_CONFIG.
const (
	defaultConfigPath = "configs/config.yaml"
	defaultEnvFile    = ".env"
	configEnvVar      = config.EnvPrefix + "CONFIG"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bosves",
		Short:         "BosVes incoming wagon API",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to the YAML config file (default $"+configEnvVar+" or "+defaultConfigPath+")")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile,
		"dotenv file loaded before the config")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
		newHashSecretCmd(),
	)
	return root
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is only an error when it was named explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath picks which config file to read. The default file is
// optional; without it the config comes from defaults and environment.
func (o *options) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
