package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/export"
)

var (
	exportRunID string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored run to a GIS format",
	Long:  "Writes the sample points of a stored run as a point shapefile (.shp) or GeoJSON (.geojson), chosen by the output extension.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, exportRunID)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if run.Report == nil {
			return eris.Errorf("run %s has no report", exportRunID)
		}

		switch {
		case strings.HasSuffix(exportOut, ".shp"):
			err = export.WriteShapefile(exportOut, run.Report)
		case strings.HasSuffix(exportOut, ".geojson"), strings.HasSuffix(exportOut, ".json"):
			err = export.WriteGeoJSON(exportOut, run.Report)
		default:
			return eris.Errorf("unsupported output extension: %s", exportOut)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("run_id", exportRunID),
			zap.String("out", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path, .shp or .geojson (required)")
	_ = exportCmd.MarkFlagRequired("run")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
