package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `inquire <id> "message"`,
		Short: "Send an inquiry about a property",
		Long:  "Send a question or message about a listing to its owner.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runInquire,
	}
}

func runInquire(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(args[1:], " "))
	if message == "" {
		return fmt.Errorf("inquiry message is required")
	}

	q, err := newAPIClient().AddInquiry(id, message)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(q)
	}

	fmt.Printf("Inquiry #%d sent.\n  %s\n", q.ID, q.Message)
	return nil
}
