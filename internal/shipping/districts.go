package shipping

import "github.com/hoamai/storefront/internal/shared"

// Fallback fees used when the stored table has no usable value.
const (
	FallbackDefaultFee int64 = 50000
	// CityFallbackFee applies to an in-city district name outside the known list.
	CityFallbackFee int64 = 35000
)

// Zone groups districts by delivery distance from the shop.
type Zone string

const (
	ZoneCentral  Zone = "central"
	ZoneInner    Zone = "inner"
	ZoneOuter    Zone = "outer"
	ZoneSuburban Zone = "suburban"
	ZoneFar      Zone = "far"
)

var zoneFees = map[Zone]int64{
	ZoneCentral:  25000,
	ZoneInner:    30000,
	ZoneOuter:    40000,
	ZoneSuburban: 60000,
	ZoneFar:      80000,
}

// District is one of the in-city delivery districts.
type District struct {
	Name string `json:"name"`
	Zone Zone   `json:"zone"`
}

// ZoneFee is the hand-tuned fee for the district's zone.
func (d District) ZoneFee() int64 {
	return zoneFees[d.Zone]
}

var districts = []District{
	{Name: "Quận 1", Zone: ZoneCentral},
	{Name: "Quận 2", Zone: ZoneInner},
	{Name: "Quận 3", Zone: ZoneCentral},
	{Name: "Quận 4", Zone: ZoneCentral},
	{Name: "Quận 5", Zone: ZoneCentral},
	{Name: "Quận 6", Zone: ZoneInner},
	{Name: "Quận 7", Zone: ZoneInner},
	{Name: "Quận 8", Zone: ZoneInner},
	{Name: "Quận 9", Zone: ZoneOuter},
	{Name: "Quận 10", Zone: ZoneCentral},
	{Name: "Quận 11", Zone: ZoneInner},
	{Name: "Quận 12", Zone: ZoneOuter},
	{Name: "Bình Thạnh", Zone: ZoneCentral},
	{Name: "Gò Vấp", Zone: ZoneInner},
	{Name: "Phú Nhuận", Zone: ZoneCentral},
	{Name: "Tân Bình", Zone: ZoneInner},
	{Name: "Tân Phú", Zone: ZoneInner},
	{Name: "Bình Tân", Zone: ZoneOuter},
	{Name: "Thủ Đức", Zone: ZoneOuter},
	{Name: "Bình Chánh", Zone: ZoneSuburban},
	{Name: "Hóc Môn", Zone: ZoneSuburban},
	{Name: "Nhà Bè", Zone: ZoneSuburban},
	{Name: "Củ Chi", Zone: ZoneFar},
	{Name: "Cần Giờ", Zone: ZoneFar},
}

var districtsBySlug = func() map[string]District {
	out := make(map[string]District, len(districts))
	for _, d := range districts {
		out[shared.Slug(d.Name)] = d
	}
	return out
}()

// Districts returns the fixed in-city district list in display order.
func Districts() []District {
	return append([]District(nil), districts...)
}

// LookupDistrict matches a district by name, ignoring case, spacing and
// diacritics.
func LookupDistrict(name string) (District, bool) {
	d, ok := districtsBySlug[shared.Slug(name)]
	return d, ok
}
