package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SystemPrompt frames every external valuation request.
const SystemPrompt = "You are a real estate valuation expert. Always respond with valid JSON."

// Errors returned by ParseResponse.
var (
	ErrNoJSON        = errors.New("no JSON object in response")
	ErrMalformedJSON = errors.New("malformed JSON in response")
)

const replyShape = `Provide your analysis in the following JSON format:
{
    "estimated_value": <estimated market value in dollars>,
    "confidence_score": <confidence score from 0-100>,
    "key_factors": ["factor1", "factor2", "factor3"],
    "price_range": {
        "low": <lowest reasonable price>,
        "high": <highest reasonable price>
    },
    "market_analysis": "<brief market analysis>",
    "recommendation": "<buy/sell/hold recommendation>"
}`

// BuildPrompt renders the user prompt sent to the external service.
func BuildPrompt(a Attributes) string {
	r := a.resolve()

	var b strings.Builder
	b.WriteString("Estimate the market value of this real estate property and provide analysis.\n\n")
	b.WriteString("Property Details:\n")
	fmt.Fprintf(&b, "- Type: %s\n", r.category)
	fmt.Fprintf(&b, "- Location: %s, %s, %s\n", orUnknown(r.address), orUnknown(r.city), orUnknown(r.state))
	fmt.Fprintf(&b, "- Size: %d square feet\n", r.squareFeet)
	fmt.Fprintf(&b, "- Bedrooms: %s\n", formatNumber(r.bedrooms))
	fmt.Fprintf(&b, "- Bathrooms: %s\n", formatNumber(r.bathrooms))
	fmt.Fprintf(&b, "- Year Built: %d\n", r.yearBuilt)
	fmt.Fprintf(&b, "- Current Price: %s\n", formatCurrency(r.price))
	fmt.Fprintf(&b, "- Lot Size: %s sq ft\n", formatNumber(r.lotSize))
	fmt.Fprintf(&b, "- Amenities: %s\n\n", strings.Join(r.amenities, ", "))
	b.WriteString(replyShape)
	b.WriteString("\n")
	return b.String()
}

// reply mirrors the JSON object the external service is asked to produce.
// Field types are enforced by the decoder.
type reply struct {
	EstimatedValue  *float64    `json:"estimated_value"`
	ConfidenceScore *float64    `json:"confidence_score"`
	KeyFactors      []string    `json:"key_factors"`
	PriceRange      *PriceRange `json:"price_range"`
	MarketAnalysis  string      `json:"market_analysis"`
	Recommendation  string      `json:"recommendation"`
}

// ParseResponse extracts the JSON object embedded in text, tolerating prose
// before and after it. Missing fields are left null.
func ParseResponse(text string) (Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Result{}, ErrNoJSON
	}

	raw := []byte(text[start : end+1])
	var rp reply
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(raw, &extra); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	for _, k := range replyKeys {
		delete(extra, k)
	}
	if len(extra) == 0 {
		extra = nil
	}

	return Result{
		EstimatedValue:  rp.EstimatedValue,
		ConfidenceScore: rp.ConfidenceScore,
		KeyFactors:      rp.KeyFactors,
		PriceRange:      rp.PriceRange,
		MarketAnalysis:  rp.MarketAnalysis,
		Recommendation:  rp.Recommendation,
		Source:          SourceExternal,
		Extra:           extra,
	}, nil
}

// replyKeys are the reply keys decoded into Result fields, plus "source",
// which Result sets itself.
var replyKeys = []string{
	"estimated_value", "confidence_score", "key_factors",
	"price_range", "market_analysis", "recommendation", "source",
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// formatNumber prints whole values without a fraction.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCurrency renders v as $1,234,567.89.
func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$" + message.NewPrinter(language.English).Sprintf("%.2f", math.Abs(v))
}
