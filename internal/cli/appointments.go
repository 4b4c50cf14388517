package cli

import (
	"github.com/spf13/cobra"
)

func newAppointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointments <id>",
		Short: "List appointments for a property",
		Long:  "Show all scheduled appointments at a listing, latest first.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAppointments,
	}
}

func runAppointments(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	appts, err := newAPIClient().ListAppointments(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(appts)
	}

	printAppointments(appts)
	return nil
}
