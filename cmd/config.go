package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/palomachain/migrator-deploy/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for managing the migrator-deploy configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the built-in defaults",
	Long: `Create migrator.yaml (or the --config path) with the default settings.
Secrets are not written; pass them through MIGRATOR_ACCOUNT_PASSWORD and
MIGRATOR_REMOTE_SIGNER_API_KEY.`,
	// Skip loading: the target file may not exist yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.FileName + ".yaml"
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Default().Write(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Config file created at %s\n", colorGreen("✓"), path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	masked := cfg.Masked()
	w := cmd.OutOrStdout()

	if jsonOut {
		return printJSON(w, masked)
	}

	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(w, string(data))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "\n%s %v\n", colorYellow("⚠"), err)
	}
	return nil
}
