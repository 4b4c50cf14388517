package cli

import (
	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/property"
)

func newSearchCmd() *cobra.Command {
	var (
		opts                   property.SearchOptions
		propertyType           string
		minPrice, maxPrice     float64
		minBedrooms, maxBedrooms int64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search properties",
		Long: `Search active listings with filters and sorting.

Examples:
  ort search --city Seattle --min-beds 3 --sort price --order asc
  ort search --type land --max-price 100000 --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PropertyType = property.Type(propertyType)
			if cmd.Flags().Changed("min-price") {
				opts.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				opts.MaxPrice = &maxPrice
			}
			if cmd.Flags().Changed("min-beds") {
				opts.BedroomsMin = &minBedrooms
			}
			if cmd.Flags().Changed("max-beds") {
				opts.BedroomsMax = &maxBedrooms
			}
			return runSearch(opts)
		},
	}

	cmd.Flags().StringVar(&propertyType, "type", "", "property type (residential|commercial|industrial|land)")
	cmd.Flags().StringVar(&opts.City, "city", "", "city")
	cmd.Flags().StringVar(&opts.State, "state", "", "state")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	cmd.Flags().Int64Var(&minBedrooms, "min-beds", 0, "minimum bedrooms")
	cmd.Flags().Int64Var(&maxBedrooms, "max-beds", 0, "maximum bedrooms")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "created_at", "sort column")
	cmd.Flags().StringVar(&opts.SortOrder, "order", "desc", "sort order (asc|desc)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "results per page (default 20, max 100)")

	return cmd
}

func runSearch(opts property.SearchOptions) error {
	props, err := newAPIClient().SearchProperties(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(props)
	}

	return printPropertyTable(props)
}
