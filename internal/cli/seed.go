package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront_back_end/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		file      string
		skipIndex bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the catalog to the store and the search index",
		Long: `Upsert categories and products into the store, index the products in
Elasticsearch and drop the cached catalog entries. Without --file the
built-in catalog is used.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := seed.Default()
			if file != "" {
				c, err = seed.LoadFile(file)
			}
			if err != nil {
				return err
			}

			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			s := &seed.Seeder{Products: a.Store, Categories: a.Store, Cache: a.Catalog}
			if !skipIndex && a.Search != nil {
				s.Index = a.Search
			}
			res, err := s.Run(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d products (%d indexed)\n",
				res.Categories, res.Products, res.Indexed)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file")
	cmd.Flags().BoolVar(&skipIndex, "skip-index", false, "do not write to the search index")
	return cmd
}
