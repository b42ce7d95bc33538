package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/hotspot"
	"github.com/urbanheat/uhi-cli/internal/model"
	"github.com/urbanheat/uhi-cli/internal/provider"
	"github.com/urbanheat/uhi-cli/internal/store"
	"github.com/urbanheat/uhi-cli/internal/threshold"
	"github.com/urbanheat/uhi-cli/pkg/nominatim"
)

var (
	analyzeCity       string
	analyzeCountry    string
	analyzeYear       int
	analyzeData       string
	analyzePolicy     string
	analyzeTarget     string
	analyzeSampleSize int
	analyzeSeed       int64
	analyzeNoGeocode  bool
	analyzeNoSave     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run hotspot analysis for a city",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Load variable layers. A .csv path is one wide table, anything else
		// is a directory of per-variable files.
		var layers model.Layers
		var err error
		if strings.HasSuffix(analyzeData, ".csv") {
			layers, err = provider.LoadWide(analyzeData)
		} else {
			layers, err = provider.LoadDir(analyzeData)
		}
		if err != nil {
			return err
		}

		pol := threshold.DefaultPolicy()
		if analyzePolicy != "" {
			pol, err = threshold.LoadPolicy(analyzePolicy)
			if err != nil {
				return err
			}
		}

		var target model.Variable
		if analyzeTarget != "" {
			target, err = model.ParseVariable(analyzeTarget)
			if err != nil {
				return err
			}
		}

		in := hotspot.Input{
			City:       analyzeCity,
			Year:       analyzeYear,
			Layers:     layers,
			Target:     target,
			SampleSize: analyzeSampleSize,
			Seed:       analyzeSeed,
			Weights:    weightsFromConfig(),
			Policy:     pol,
		}
		if in.SampleSize == 0 {
			in.SampleSize = cfg.Sample.Size
		}
		if !cmd.Flags().Changed("seed") {
			in.Seed = cfg.Sample.Seed
		}

		// Resolve the city boundary unless the caller opts out. Analysis can
		// proceed without one; the AOI filter is simply skipped.
		if !analyzeNoGeocode {
			client := nominatim.NewClient(
				nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
				nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
				nominatim.WithRateLimit(cfg.Nominatim.RPS),
			)
			aoi, err := client.CityBoundary(ctx, analyzeCity, analyzeCountry)
			if err != nil {
				zap.L().Warn("geocoding failed, analyzing without AOI filter", zap.Error(err))
			} else {
				in.AOI = aoi
			}
		}

		report, err := hotspot.Run(in)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("city", analyzeCity),
			zap.Int("points", len(report.Points)),
			zap.Int("validated", report.LabelCount[model.LabelValidated]),
		)

		if !analyzeNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			run := store.Run{
				ID:      uuid.New().String(),
				City:    analyzeCity,
				Slug:    store.Slug(analyzeCity),
				Country: analyzeCountry,
				Year:    analyzeYear,
				Report:  report,
			}
			if err := st.SaveRun(ctx, run); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCity, "city", "", "city name (required)")
	analyzeCmd.Flags().StringVar(&analyzeCountry, "country", "", "country name, disambiguates geocoding")
	analyzeCmd.Flags().IntVar(&analyzeYear, "year", 0, "observation year (required)")
	analyzeCmd.Flags().StringVar(&analyzeData, "data", "", "CSV dataset: a directory of per-variable files or one wide .csv (required)")
	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "", "YAML policy file overriding directions and thresholds")
	analyzeCmd.Flags().StringVar(&analyzeTarget, "target", "", "clustering target variable (default: exceedance count)")
	analyzeCmd.Flags().IntVar(&analyzeSampleSize, "sample-size", 0, "points to sample (default from config)")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "sampling seed (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoGeocode, "no-geocode", false, "skip city boundary lookup")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not persist the run")
	_ = analyzeCmd.MarkFlagRequired("city")
	_ = analyzeCmd.MarkFlagRequired("year")
	_ = analyzeCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(analyzeCmd)
}
