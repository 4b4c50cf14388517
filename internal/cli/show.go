package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Long:  "Show full details for a property, including inquiries and appointments.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c := newAPIClient()

	p, err := c.GetProperty(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(p)
	}

	printPropertySummary(p)
	fmt.Println()

	appts, err := c.ListAppointments(id)
	if err != nil {
		warnf("loading appointments: %v", err)
	} else if len(appts) > 0 {
		fmt.Printf("Appointments (%d):\n", len(appts))
		printAppointments(appts)
	}

	inquiries, err := c.ListInquiries(id)
	if err != nil {
		warnf("loading inquiries: %v", err)
		return nil
	}
	if len(inquiries) > 0 {
		fmt.Printf("Inquiries (%d):\n", len(inquiries))
	}
	printInquiries(inquiries)

	return nil
}
