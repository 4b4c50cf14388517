package property

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValuationAttributes(t *testing.T) {
	beds := int64(3)
	sqft := int64(1500)
	p := testListing("Attribute mapping", 410000)
	p.PropertyType = Commercial
	p.City = "Chicago"
	p.Bedrooms = &beds
	p.SquareFeet = &sqft
	p.Amenities = []string{"parking"}

	a := p.ValuationAttributes()
	if string(a.Category) != "commercial" {
		t.Errorf("category = %q", a.Category)
	}
	assertFloat64(t, "bedrooms", a.Bedrooms, 3)
	assertFloat64(t, "price", a.Price, 410000)
	assertInt64(t, "square_feet", a.SquareFeet, 1500)
	if a.Bathrooms != nil {
		t.Error("expected nil bathrooms")
	}
	if a.City != "Chicago" || len(a.Amenities) != 1 {
		t.Errorf("attributes = %+v", a)
	}
}

func TestPropertyJSONAlwaysHasAmenities(t *testing.T) {
	p := testListing("Encoding check", 100000)
	p.Amenities = []string{}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"amenities":[]`) {
		t.Errorf("json = %s, want empty amenities array", b)
	}
	if strings.Contains(string(b), "ai_valuation") {
		t.Errorf("json = %s, want ai_valuation omitted", b)
	}
}
