package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/importer"
)

var importCompany string

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import businesses from YAML/JSON, XLSX or shapefiles into the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		seeds, err := importer.ReadFiles(ctx, args)
		if err != nil {
			return eris.Wrap(err, "read import files")
		}

		st, closeStore, err := initState(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		var total importer.Result
		for i, seed := range seeds {
			res, err := importer.Load(ctx, st, seed, importCompany)
			if err != nil {
				return eris.Wrapf(err, "import %s", args[i])
			}
			zap.L().Info("imported file",
				zap.String("file", args[i]),
				zap.Int("companies", res.Companies),
				zap.Int("businesses", res.Businesses),
				zap.Int("skipped", res.Skipped),
			)
			total.Companies += res.Companies
			total.Businesses += res.Businesses
			total.Skipped += res.Skipped
		}

		zap.L().Info("import complete",
			zap.Int("files", len(args)),
			zap.Int("companies", total.Companies),
			zap.Int("businesses", total.Businesses),
			zap.Int("skipped", total.Skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCompany, "company", "", "company id for rows without one (default: selected company)")
	rootCmd.AddCommand(importCmd)
}
