package cli

import (
	"github.com/spf13/cobra"
)

func newInquiriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inquiries <id>",
		Short: "List inquiries for a property",
		Args:  cobra.ExactArgs(1),
		RunE:  runInquiries,
	}
}

func runInquiries(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	inquiries, err := newAPIClient().ListInquiries(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(inquiries)
	}

	printInquiries(inquiries)
	return nil
}
