package valuation

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RateTable is the per-square-foot base rate for each category.
var RateTable = map[Category]float64{
	Residential: 200,
	Commercial:  150,
	Industrial:  100,
	Land:        50,
}

// CityTier applies Multiplier when the city contains any of Cities.
type CityTier struct {
	Multiplier float64
	Cities     []string
}

// CityTiers are checked in order; the first matching tier wins.
var CityTiers = []CityTier{
	{Multiplier: 1.5, Cities: []string{"new york", "san francisco", "los angeles"}},
	{Multiplier: 1.2, Cities: []string{"chicago", "miami", "seattle"}},
}

const (
	defaultSquareFeet = 1000
	bedroomValue      = 10000
	bathroomValue     = 5000
	fallbackScore     = 65
	rangeLowFactor    = 0.85
	rangeHighFactor   = 1.15

	fallbackAnalysis       = "Based on rule-based estimation using property size, type, and location."
	fallbackRecommendation = "Consider professional appraisal for accurate valuation"
)

// EstimateFallback values a property with the rule-based model. It is pure
// and never fails.
func EstimateFallback(a Attributes) Result {
	r := a.resolve()

	rate, ok := RateTable[r.category]
	if !ok {
		rate = RateTable[Residential]
	}

	area := r.squareFeet
	if !r.hasArea {
		area = defaultSquareFeet
	}

	base := rate * float64(area)
	rooms := r.bedrooms*bedroomValue + r.bathrooms*bathroomValue
	estimate := (base + rooms) * cityMultiplier(r.city)

	location := "Unknown"
	if r.city != "" {
		// A Caser is stateful, so each call gets its own.
		location = cases.Title(language.Und).String(r.city)
	}

	return Result{
		EstimatedValue:  float64Ptr(round2(estimate)),
		ConfidenceScore: float64Ptr(fallbackScore),
		KeyFactors: []string{
			fmt.Sprintf("Property type: %s", r.category),
			fmt.Sprintf("Size: %d sq ft", area),
			fmt.Sprintf("Location: %s", location),
		},
		PriceRange: &PriceRange{
			Low:  float64Ptr(round2(estimate * rangeLowFactor)),
			High: float64Ptr(round2(estimate * rangeHighFactor)),
		},
		MarketAnalysis: fallbackAnalysis,
		Recommendation: fallbackRecommendation,
		Source:         SourceRuleBased,
	}
}

func cityMultiplier(city string) float64 {
	city = strings.ToLower(city)
	if city == "" {
		return 1
	}
	for _, tier := range CityTiers {
		for _, c := range tier.Cities {
			if strings.Contains(city, c) {
				return tier.Multiplier
			}
		}
	}
	return 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
