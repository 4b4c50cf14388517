package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "value <id>",
		Short: "Estimate a listing's market value",
		Long:  "Ask the server to estimate the market value of a listing. The estimate is saved on the listing.",
		Args:  cobra.ExactArgs(1),
		RunE:  runValue,
	}
}

func runValue(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	v, err := newAPIClient().ValuateProperty(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(v)
	}

	fmt.Printf("Property #%d (asking $%s)\n", v.PropertyID, formatPrice(v.CurrentPrice))
	printValuation(v.Valuation)
	return nil
}
