package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prospectai/prospect-cli/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		defaults := config.Config{
			Anthropic: config.AnthropicConfig{
				Model:              "claude-haiku-4-5-20251001",
				RequestTimeoutSecs: 120,
			},
			Acquire: config.AcquireConfig{
				BrowserTimeoutSecs: 20,
			},
			Cache: config.CacheConfig{
				Enabled:  true,
				Path:     "fetch-cache.db",
				TTLHours: 24,
			},
			Pipeline: config.PipelineConfig{
				ConfidenceThreshold: 0.7,
				MaxRetries:          3,
				RateLimitBaseSecs:   5,
				RequestsPerMinute:   20,
				Workers:             5,
			},
			Server: config.ServerConfig{Port: 8080},
			Log:    config.LogConfig{Level: "info", Format: "json"},
		}

		out, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "marshal defaults")
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return eris.Wrap(err, "write config file")
		}
		cmd.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
