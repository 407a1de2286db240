package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/store"
)

func newBrandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List the brands present in the ingested corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			catalog, err := store.OpenCatalog(cfg.CatalogPath())
			if err != nil {
				return err
			}
			defer catalog.Close()

			brands, err := catalog.Brands(cmd.Context())
			if err != nil {
				return err
			}

			if len(brands) == 0 {
				output.New(os.Stdout).Warning("No brands found; is the corpus ingested?")
				return nil
			}
			for _, b := range brands {
				fmt.Println(b)
			}
			return nil
		},
	}
}
