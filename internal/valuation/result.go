package valuation

import "encoding/json"

// Source records which path produced a Result.
type Source string

// Result sources.
const (
	SourceExternal  Source = "external"
	SourceRuleBased Source = "rule_based"
)

// PriceRange is a low/high band around an estimate.
type PriceRange struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

// Result is a valuation estimate. EstimatedValue, ConfidenceScore and
// KeyFactors are always present in the encoded form, null when the
// external service omitted them.
type Result struct {
	EstimatedValue  *float64    `json:"estimated_value"`
	ConfidenceScore *float64    `json:"confidence_score"`
	KeyFactors      []string    `json:"key_factors"`
	PriceRange      *PriceRange `json:"price_range,omitempty"`
	MarketAnalysis  string      `json:"market_analysis,omitempty"`
	Recommendation  string      `json:"recommendation,omitempty"`
	Source          Source      `json:"source"`

	// Extra holds keys of the external reply beyond the fields above. They
	// are encoded alongside the known fields.
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON encodes r, adding any Extra keys that do not clash with a
// known field.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	data, err := json.Marshal(plain(r))
	if err != nil || len(r.Extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func float64Ptr(v float64) *float64 { return &v }
