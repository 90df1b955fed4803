package enums

import "fmt"

// SiteType classifies a physical location in the packaging loop.
type SiteType string

const (
	SiteTypeFarm      SiteType = "farm"
	SiteTypeDepot     SiteType = "depot"
	SiteTypePackhouse SiteType = "packhouse"
	SiteTypeColdStore SiteType = "cold_store"
	SiteTypeMarket    SiteType = "market"
	SiteTypeVendor    SiteType = "vendor"
)

var validSiteTypes = []SiteType{
	SiteTypeFarm,
	SiteTypeDepot,
	SiteTypePackhouse,
	SiteTypeColdStore,
	SiteTypeMarket,
	SiteTypeVendor,
}

// String implements fmt.Stringer.
func (s SiteType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SiteType.
func (s SiteType) IsValid() bool {
	for _, candidate := range validSiteTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSiteType converts raw input into a SiteType.
func ParseSiteType(value string) (SiteType, error) {
	for _, candidate := range validSiteTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid site type %q", value)
}
