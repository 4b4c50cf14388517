package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "schedule <id> <date> <type>",
		Short: "Schedule an appointment at a property",
		Long: `Schedule an appointment at a listing.

Date format: YYYY-MM-DD
Appointment types: showing, open_house, inspection, appraisal

Examples:
  ort schedule 3 2026-11-14 showing
  ort schedule 3 2026-11-14 inspection --notes "bring a ladder"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(args, notes)
		},
	}

	cmd.Flags().StringVarP(&notes, "notes", "n", "", "optional notes about the appointment")

	return cmd
}

func runSchedule(args []string, notes string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	date := args[1]
	typ := strings.ToLower(args[2])

	a, err := newAPIClient().AddAppointment(id, date, typ, notes)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(a)
	}

	fmt.Printf("Appointment scheduled: %s %s (#%d)\n", a.Date, a.Type.Label(), a.ID)
	if a.Notes != "" {
		fmt.Printf("  %s\n", a.Notes)
	}
	return nil
}
