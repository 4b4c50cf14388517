package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ortrealty/ort/internal/property"
)

func newUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		price       float64
		status      string
		bedrooms    int64
		bathrooms   float64
		squareFeet  int64
		amenities   []string
		restore     bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a property listing",
		Long: `Change fields of a listing you own. Only the flags given are changed.

Examples:
  ort update 3 --price 399000 --status sold
  ort update 3 --restore`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			fs := cmd.Flags()
			var in property.UpdateInput
			if fs.Changed("title") {
				in.Title = &title
			}
			if fs.Changed("description") {
				in.Description = &description
			}
			if fs.Changed("status") {
				s := property.Status(status)
				in.Status = &s
			}
			if fs.Changed("amenities") {
				in.Amenities = &amenities
			}
			if restore {
				active := true
				in.IsActive = &active
			}
			in.Price = float64Flag(fs, "price", price)
			in.Bedrooms = int64Flag(fs, "beds", bedrooms)
			in.Bathrooms = float64Flag(fs, "baths", bathrooms)
			in.SquareFeet = int64Flag(fs, "sqft", squareFeet)

			return runUpdate(id, in)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().Float64Var(&price, "price", 0, "asking price")
	cmd.Flags().StringVar(&status, "status", "", "status (for_sale|for_rent|sold|rented|off_market)")
	cmd.Flags().Int64Var(&bedrooms, "beds", 0, "bedrooms")
	cmd.Flags().Float64Var(&bathrooms, "baths", 0, "bathrooms")
	cmd.Flags().Int64Var(&squareFeet, "sqft", 0, "square feet")
	cmd.Flags().StringSliceVar(&amenities, "amenities", nil, "replace amenities (comma-separated)")
	cmd.Flags().BoolVar(&restore, "restore", false, "reactivate a removed listing")

	return cmd
}

func runUpdate(id int64, in property.UpdateInput) error {
	p, err := newAPIClient().UpdateProperty(id, in)
	if err != nil {
		return fmt.Errorf("updating property: %w", err)
	}

	if isJSON() {
		return printJSON(p)
	}

	fmt.Println("Property updated.")
	printPropertySummary(p)
	return nil
}
