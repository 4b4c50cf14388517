package cli

import (
	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/client"
)

func newListCmd() *cobra.Command {
	var (
		opts     client.ListOptions
		minPrice float64
		maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active properties",
		Long:  "List active listings, newest first, optionally filtered by type, city, and price.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-price") {
				opts.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				opts.MaxPrice = &maxPrice
			}
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.PropertyType, "type", "", "property type (residential|commercial|industrial|land)")
	cmd.Flags().StringVar(&opts.City, "city", "", "city to filter by")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "number of listings to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum listings to return (default 20, max 100)")

	return cmd
}

func runList(opts client.ListOptions) error {
	props, err := newAPIClient().ListProperties(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(props)
	}

	return printPropertyTable(props)
}
