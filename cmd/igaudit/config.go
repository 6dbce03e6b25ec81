package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igaudit/pkg/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igaudit configuration files.

Configuration is merged from, lowest priority first:
  - default values
  - the configuration file
  - .env files and IGAUDIT_* environment variables
  - command line flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write the default configuration to .igaudit.yaml, or to the path given
with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".igaudit.yaml"
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	p := newPrinter(os.Stdout)
	p.Success("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Adjust thresholds or the provider in the file")
	fmt.Println("  2. Run 'igaudit config validate'")
	fmt.Println("  3. Run 'igaudit check <username>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}
	newPrinter(os.Stdout).Success("Configuration is valid")
	return nil
}

// maskedConfig returns a copy of cfg with credentials hidden
func maskedConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Instagram.SessionID = mask(c.Instagram.SessionID)
	c.Instagram.CSRFToken = mask(c.Instagram.CSRFToken)
	c.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	return &c
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
