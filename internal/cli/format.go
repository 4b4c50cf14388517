package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ortrealty/ort/internal/appointment"
	"github.com/ortrealty/ort/internal/inquiry"
	"github.com/ortrealty/ort/internal/property"
	"github.com/ortrealty/ort/internal/valuation"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property summary in text format.
func printPropertySummary(p *property.Property) {
	fmt.Printf("Property #%d: %s\n", p.ID, p.Title)
	fmt.Printf("  Address:  %s\n", formatAddress(p))
	fmt.Printf("  Price:    $%s\n", formatPrice(p.Price))
	fmt.Printf("  Type:     %s\n", p.PropertyType)
	fmt.Printf("  Status:   %s\n", p.Status)
	if p.Bedrooms != nil {
		fmt.Printf("  Beds:     %d\n", *p.Bedrooms)
	}
	if p.Bathrooms != nil {
		fmt.Printf("  Baths:    %g\n", *p.Bathrooms)
	}
	if p.SquareFeet != nil {
		fmt.Printf("  Sqft:     %d\n", *p.SquareFeet)
	}
	if p.LotSize != nil {
		fmt.Printf("  Lot:      %.2f acres\n", *p.LotSize)
	}
	if p.YearBuilt != nil {
		fmt.Printf("  Built:    %d\n", *p.YearBuilt)
	}
	if len(p.Amenities) > 0 {
		fmt.Printf("  Features: %s\n", strings.Join(p.Amenities, ", "))
	}
	if p.AIValuation != nil {
		fmt.Printf("  Estimate: $%s\n", formatPrice(*p.AIValuation))
	}
	fmt.Printf("  Owner:    %s\n", p.OwnerEmail)
	fmt.Printf("  Views:    %d\n", p.ViewsCount)
	if p.Description != "" {
		fmt.Printf("\n  %s\n", p.Description)
	}
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(props []*property.Property) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tCITY\tTYPE\tPRICE\tBED\tBATH\tSQFT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t----\t-----\t---\t----\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		beds := "-"
		if p.Bedrooms != nil {
			beds = fmt.Sprintf("%d", *p.Bedrooms)
		}
		baths := "-"
		if p.Bathrooms != nil {
			baths = fmt.Sprintf("%g", *p.Bathrooms)
		}
		sqft := "-"
		if p.SquareFeet != nil {
			sqft = fmt.Sprintf("%d", *p.SquareFeet)
		}

		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t$%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 32), p.City, p.PropertyType, formatPrice(p.Price), beds, baths, sqft); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// printValuation prints a valuation result in text format.
func printValuation(r valuation.Result) {
	if r.EstimatedValue != nil {
		fmt.Printf("Estimated value: $%s\n", formatPrice(*r.EstimatedValue))
	} else {
		fmt.Println("Estimated value: unknown")
	}
	if r.PriceRange != nil && r.PriceRange.Low != nil && r.PriceRange.High != nil {
		fmt.Printf("Range:           $%s - $%s\n", formatPrice(*r.PriceRange.Low), formatPrice(*r.PriceRange.High))
	}
	if r.ConfidenceScore != nil {
		fmt.Printf("Confidence:      %g\n", *r.ConfidenceScore)
	}
	fmt.Printf("Source:          %s\n", r.Source)
	if len(r.KeyFactors) > 0 {
		fmt.Println("Key factors:")
		for _, f := range r.KeyFactors {
			fmt.Printf("  - %s\n", f)
		}
	}
	if r.MarketAnalysis != "" {
		fmt.Printf("\n%s\n", r.MarketAnalysis)
	}
	if r.Recommendation != "" {
		fmt.Printf("Recommendation: %s\n", r.Recommendation)
	}
}

// printInquiries prints inquiries in text format.
func printInquiries(inquiries []*inquiry.Inquiry) {
	if len(inquiries) == 0 {
		fmt.Println("No inquiries.")
		return
	}

	for _, q := range inquiries {
		author := q.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Printf("[%s] #%d (%s)\n  %s\n\n",
			q.CreatedAt.Format("2006-01-02 15:04"), q.ID, author, q.Message)
	}
}

// printAppointments prints appointments in text format.
func printAppointments(appts []*appointment.Appointment) {
	if len(appts) == 0 {
		fmt.Println("No appointments scheduled.")
		return
	}

	for _, a := range appts {
		fmt.Printf("[%s] %s (#%d)", a.Date, a.Type.Label(), a.ID)
		if a.Agent != "" {
			fmt.Printf(" with %s", a.Agent)
		}
		fmt.Println()
		if a.Notes != "" {
			fmt.Printf("  %s\n", a.Notes)
		}
		fmt.Println()
	}
}

// formatAddress joins the non-empty address parts of a listing.
func formatAddress(p *property.Property) string {
	var parts []string
	for _, s := range []string{p.Address, p.City, strings.TrimSpace(p.State + " " + p.ZipCode)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// formatPrice formats a dollar amount as whole dollars with commas.
func formatPrice(dollars float64) string {
	sign := ""
	if dollars < 0 {
		sign = "-"
	}
	return sign + message.NewPrinter(language.English).Sprintf("%.0f", math.Abs(math.Round(dollars)))
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
