// Package cli implements storectl, the storefront operations tool.
package cli

import (
	"github.com/spf13/cobra"

	"storefront_back_end/internal/app"
	"storefront_back_end/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string

	// Open builds the application; tests replace it.
	Open func(cfg *config.Config) (*app.App, error)
}

// NewRootCommand creates the storectl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Open: app.New}

	cmd := &cobra.Command{
		Use:   "storectl",
		Short: "Storefront operations",
		Long:  "Seed the catalog, manage orders and upload product images.",
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewOrderStatusCommand(opts))
	cmd.AddCommand(NewImageUploadCommand(opts))
	return cmd
}

// open loads the configuration and connects the application.
func (o *RootOptions) open() (*app.App, error) {
	if o.EnvFile != "" {
		config.LoadEnv(o.EnvFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	open := o.Open
	if open == nil {
		open = app.New
	}
	return open(cfg)
}
