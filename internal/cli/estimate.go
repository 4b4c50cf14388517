package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/config"
	"github.com/ortrealty/ort/internal/valuation"
)

func newEstimateCmd() *cobra.Command {
	var (
		features featureFlags
		offline  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate [address]",
		Short: "Estimate a market value without a listing",
		Long: `Value a property described by flags, without contacting the ort server.

The external valuation service configured by OPENAI_API_KEY and ORT_LLM_*
is used when available; otherwise the rule-based model answers.

Example:
  ort estimate --city Seattle --sqft 1500 --beds 3 --baths 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			a := valuation.Attributes{
				Category:   valuation.Category(strings.ToLower(features.propertyType)),
				Address:    strings.Join(args, " "),
				City:       features.city,
				State:      features.state,
				Price:      float64Flag(fs, "price", features.price),
				SquareFeet: int64Flag(fs, "sqft", features.squareFeet),
				Bathrooms:  float64Flag(fs, "baths", features.bathrooms),
				LotSize:    float64Flag(fs, "lot-size", features.lotSize),
				YearBuilt:  int64Flag(fs, "year-built", features.yearBuilt),
				Amenities:  features.amenities,
			}
			if fs.Changed("beds") {
				beds := float64(features.bedrooms)
				a.Bedrooms = &beds
			}
			return runEstimate(cmd.Context(), a, offline)
		},
	}

	features.register(cmd.Flags())
	cmd.Flags().BoolVar(&offline, "offline", false, "use only the rule-based model")

	return cmd
}

func runEstimate(ctx context.Context, a valuation.Attributes, offline bool) error {
	var result valuation.Result
	if offline {
		result = valuation.EstimateFallback(a)
	} else {
		est, err := newEstimator()
		if err != nil {
			return err
		}

		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		result, err = est.Estimate(ctx, a)
		if err != nil {
			return err
		}
	}

	if isJSON() {
		return printJSON(result)
	}

	printValuation(result)
	return nil
}

// newEstimator builds an Estimator from the environment configuration.
func newEstimator() (*valuation.Estimator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	completer, err := valuation.NewCompleter(cfg.Provider())
	if err != nil {
		return nil, err
	}

	return valuation.New(completer, valuation.WithTimeout(cfg.Valuation.Timeout)), nil
}
