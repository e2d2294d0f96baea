// Package shipping resolves delivery fees from the admin-managed district table.
package shipping

import (
	"fmt"
	"strings"

	"github.com/hoamai/storefront/internal/platform/httpx"
)

var ErrUnknownDistrict = fmt.Errorf("%w: unknown district", httpx.ErrValidation)

// Table is the admin-managed fee table. Fees are keyed by district display
// name; DefaultShippingFee applies to addresses outside the city.
type Table struct {
	Fees               map[string]int64 `json:"fees"`
	DefaultShippingFee int64            `json:"defaultShippingFee"`
}

// DefaultTable seeds every district with its zone fee.
func DefaultTable() Table {
	fees := make(map[string]int64, len(districts))
	for _, d := range districts {
		fees[d.Name] = d.ZoneFee()
	}
	return Table{Fees: fees, DefaultShippingFee: FallbackDefaultFee}
}

// Fee returns the stored fee for a known district, matching names loosely.
func (t Table) Fee(district string) (int64, bool) {
	if fee, ok := t.Fees[district]; ok {
		return fee, true
	}
	d, ok := LookupDistrict(district)
	if !ok {
		return 0, false
	}
	for name, fee := range t.Fees {
		if other, ok := LookupDistrict(name); ok && other.Name == d.Name {
			return fee, true
		}
	}
	return 0, false
}

// Normalize rewrites district keys to their display names and rejects
// unknown districts and negative fees.
func (t Table) Normalize() (Table, error) {
	if t.DefaultShippingFee < 0 {
		return Table{}, httpx.FieldErrors{"defaultShippingFee": "must be at least 0"}
	}
	out := Table{Fees: make(map[string]int64, len(t.Fees)), DefaultShippingFee: t.DefaultShippingFee}
	for name, fee := range t.Fees {
		d, ok := LookupDistrict(name)
		if !ok {
			return Table{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, name)
		}
		if fee < 0 {
			return Table{}, httpx.FieldErrors{"fees." + d.Name: "must be at least 0"}
		}
		out.Fees[d.Name] = fee
	}
	return out, nil
}

// Address classifies a delivery address.
type Address struct {
	InCity   bool   `json:"inCity"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
}

// Fee sources reported on a Quote.
const (
	SourceTable   = "table"
	SourceZone    = "zone"
	SourceCity    = "city"
	SourceDefault = "default"
	SourcePending = "pending"
)

// Quote is a resolved shipping fee. Complete is false while an in-city
// address still lacks a district; such an order cannot be submitted.
type Quote struct {
	Fee      int64  `json:"fee"`
	Complete bool   `json:"complete"`
	Source   string `json:"source"`
	District string `json:"district,omitempty"`
}

// Resolve computes the shipping fee for addr. It never fails: missing table
// entries fall back to the district's zone fee.
func Resolve(addr Address, table Table) Quote {
	if !addr.InCity {
		return Quote{Fee: table.DefaultShippingFee, Complete: true, Source: SourceDefault}
	}
	name := strings.TrimSpace(addr.District)
	if name == "" {
		return Quote{Fee: 0, Complete: false, Source: SourcePending}
	}
	if fee, ok := table.Fee(name); ok {
		if d, known := LookupDistrict(name); known {
			name = d.Name
		}
		return Quote{Fee: fee, Complete: true, Source: SourceTable, District: name}
	}
	if d, ok := LookupDistrict(name); ok {
		return Quote{Fee: d.ZoneFee(), Complete: true, Source: SourceZone, District: d.Name}
	}
	return Quote{Fee: CityFallbackFee, Complete: true, Source: SourceCity, District: name}
}
