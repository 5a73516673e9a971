// Package main provides the ai-ticker-cli command-line tool for validating
// configuration and exercising the message pipeline without the web server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	aiticker "github.com/ai-ticker/ai-ticker"
	"github.com/ai-ticker/ai-ticker/internal/version"
	"github.com/ai-ticker/ai-ticker/plugin/builtin"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "ai-ticker-cli",
		Short:         "AI-Ticker command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newValidateCmd(),
		newPluginsCmd(),
		newProvidersCmd(),
		newHealthCmd(),
		newMessageCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadClientConfig resolves the config the same way the server does: an
// explicit path beats TICKER_CONFIG beats environment defaults.
func loadClientConfig(path string) (*aiticker.Config, error) {
	if path == "" {
		path = os.Getenv("TICKER_CONFIG")
	}
	if path == "" {
		return aiticker.DefaultConfig(), nil
	}
	return aiticker.LoadConfig(path)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := aiticker.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := aiticker.ValidateConfig(*cfg); err != nil {
				return fmt.Errorf("validation: %w", err)
			}

			var names []string
			for _, spec := range cfg.Providers {
				if spec.Disabled {
					names = append(names, spec.Plugin+" (disabled)")
				} else {
					names = append(names, spec.Plugin)
				}
			}
			cmd.Printf("Config is valid\n")
			cmd.Printf("  Providers:       %s\n", strings.Join(names, ", "))
			cmd.Printf("  Fuzzy threshold: %d\n", cfg.Cache.FuzzyThreshold)
			cmd.Printf("  Cache size:      %d (recent %d)\n", cfg.Cache.MaxSize, cfg.Cache.RecentLimit)
			return nil
		},
	}
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the built-in plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range builtin.All() {
				info := p.Info()
				cmd.Printf("  %-12s v%-8s %s\n", info.Name, info.Metadata.Version, info.Metadata.Description)
			}
			return nil
		},
	}
}

func newProvidersCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the configured providers in priority order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(configPath)
			if err != nil {
				return err
			}
			client, err := aiticker.New(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			info := client.ProviderInfo()
			for i, name := range client.AvailableProviders() {
				pi := info[name]
				cmd.Printf("  %d. %-12s model=%s\n", i+1, name, pi.Model)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var configPath string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe every configured provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(configPath)
			if err != nil {
				return err
			}
			client, err := aiticker.New(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			unhealthy := 0
			for name, ok := range client.HealthCheckAll(ctx) {
				status := "healthy"
				if !ok {
					status = "unhealthy"
					unhealthy++
				}
				cmd.Printf("  %-12s %s\n", name, status)
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d provider(s) unhealthy", unhealthy)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall probe timeout")
	return cmd
}

func newMessageCmd() *cobra.Command {
	var configPath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Fetch one message through the full cache/failover pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(configPath)
			if err != nil {
				return err
			}
			client, err := aiticker.New(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			msg, err := client.GetMessage(cmd.Context(), "", "", nil, 0)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(msg)
			}
			cmd.Println(msg.Content)
			if msg.Source == "cache" {
				cmd.Println("  (from cache)")
			} else {
				cmd.Printf("  (via %s, %s)\n", msg.Provider, msg.Model)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full message record as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ai-ticker-cli %s\n", version.String())
		},
	}
}
