package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ortrealty/ort/internal/property"
)

// featureFlags are the physical attributes shared by add and estimate.
type featureFlags struct {
	propertyType string
	city         string
	state        string
	price        float64
	bedrooms     int64
	bathrooms    float64
	squareFeet   int64
	lotSize      float64
	yearBuilt    int64
	amenities    []string
}

func (f *featureFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.propertyType, "type", "residential", "property type (residential|commercial|industrial|land)")
	fs.StringVar(&f.city, "city", "", "city")
	fs.StringVar(&f.state, "state", "", "state")
	fs.Float64Var(&f.price, "price", 0, "asking price")
	fs.Int64Var(&f.bedrooms, "beds", 0, "bedrooms")
	fs.Float64Var(&f.bathrooms, "baths", 0, "bathrooms")
	fs.Int64Var(&f.squareFeet, "sqft", 0, "square feet")
	fs.Float64Var(&f.lotSize, "lot-size", 0, "lot size in acres")
	fs.Int64Var(&f.yearBuilt, "year-built", 0, "year built")
	fs.StringSliceVar(&f.amenities, "amenities", nil, "comma-separated amenities")
}

// int64Flag returns &v if the named flag was set.
func int64Flag(fs *pflag.FlagSet, name string, v int64) *int64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

// float64Flag returns &v if the named flag was set.
func float64Flag(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func newAddCmd() *cobra.Command {
	var (
		features    featureFlags
		title       string
		description string
		zipCode     string
		status      string
		featured    bool
	)

	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a property listing",
		Long: `Create a listing owned by the logged-in user.

Example:
  ort add 12 Pine St --title "Craftsman near the park" --city Seattle --state WA \
    --price 425000 --beds 3 --baths 2 --sqft 1500 --amenities garage,deck`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			in := property.CreateInput{
				Title:        title,
				Description:  description,
				PropertyType: property.Type(strings.ToLower(features.propertyType)),
				Status:       property.Status(status),
				Price:        features.price,
				Address:      strings.Join(args, " "),
				City:         features.city,
				State:        features.state,
				ZipCode:      zipCode,
				Bedrooms:     int64Flag(fs, "beds", features.bedrooms),
				Bathrooms:    float64Flag(fs, "baths", features.bathrooms),
				SquareFeet:   int64Flag(fs, "sqft", features.squareFeet),
				LotSize:      float64Flag(fs, "lot-size", features.lotSize),
				YearBuilt:    int64Flag(fs, "year-built", features.yearBuilt),
				Amenities:    features.amenities,
				IsFeatured:   featured,
			}
			return runAdd(in)
		},
	}

	features.register(cmd.Flags())
	cmd.Flags().StringVar(&title, "title", "", "listing title (5-255 characters)")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().StringVar(&zipCode, "zip", "", "zip code")
	cmd.Flags().StringVar(&status, "status", "", "listing status (default for_sale)")
	cmd.Flags().BoolVar(&featured, "featured", false, "mark the listing as featured")

	return cmd
}

func runAdd(in property.CreateInput) error {
	p, err := newAPIClient().CreateProperty(in)
	if err != nil {
		return fmt.Errorf("adding property: %w", err)
	}

	if isJSON() {
		return printJSON(p)
	}

	fmt.Println("Property added successfully!")
	printPropertySummary(p)
	return nil
}
