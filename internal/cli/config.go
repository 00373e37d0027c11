package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"insider-graph/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			settings := app.Config.Settings()
			if output.IsJSON() {
				return output.JSON(settings)
			}

			if app.Config.File != "" {
				output.Dim("# %s", app.Config.File)
			} else {
				output.Dim("# defaults (no config file in %s)", app.Config.Dir)
			}
			table := NewTable(output, "KEY", "VALUE")
			for _, s := range settings {
				table.AddRow(s.Key, fmt.Sprint(s.Value))
			}
			table.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			force, _ := cmd.Flags().GetBool("force")
			path, err := config.WriteTemplate(app.Config.Dir, force)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Configuration template written to %s", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	return cmd
}
