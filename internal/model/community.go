package model

import (
	"fmt"
	"time"
)

// Tier ranks a community's commercial relationship with the placement service.
type Tier int

const (
	TierContracted Tier = 1 // contracted rate
	TierPartner    Tier = 2 // uncontracted placement partner
	TierOther      Tier = 3
)

// Tiers lists every tier in ranking order.
var Tiers = []Tier{TierContracted, TierPartner, TierOther}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t >= TierContracted && t <= TierOther
}

// Label returns the operator-facing name of the tier.
func (t Tier) Label() string {
	switch t {
	case TierContracted:
		return "Contracted"
	case TierPartner:
		return "Partners"
	case TierOther:
		return "Other"
	default:
		return fmt.Sprintf("Tier %d", int(t))
	}
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LookupFailure explains why a location could not be resolved.
type LookupFailure string

const (
	LookupResolved      LookupFailure = ""
	LookupMissingCode   LookupFailure = "missing_code"
	LookupMalformedCode LookupFailure = "malformed_code"
	LookupError         LookupFailure = "lookup_error"
	LookupNoResult      LookupFailure = "no_result"
	LookupNoZipColumn   LookupFailure = "no_zip_column"
)

// Community is one row of the community catalog plus the fields derived
// while ranking it.
type Community struct {
	ID               string            `json:"community_id"`
	ServiceType      string            `json:"service_type"`
	MonthlyFee       *float64          `json:"monthly_fee"`
	FeeText          string            `json:"fee_text,omitempty"`
	Enhanced         string            `json:"enhanced"`
	Enriched         string            `json:"enriched"`
	ContractStatus   string            `json:"contract_status"`
	PlacementPartner string            `json:"placement_partner"`
	ZipCode          string            `json:"zip_code"`
	Town             string            `json:"town"`
	State            string            `json:"state"`
	WaitlistEstimate string            `json:"waitlist_estimate"`
	ApartmentType    string            `json:"apartment_type"`
	Extra            map[string]string `json:"extra,omitempty"`

	Coords          *Coordinate   `json:"coords,omitempty"`
	LocationFailure LookupFailure `json:"location_failure,omitempty"`
	DistanceMiles   *float64      `json:"distance_miles"`
	Tier            Tier          `json:"priority_level"`
	RankInTier      int           `json:"rank_within_priority"`
}

// HasDistance reports whether a distance was computed.
func (c *Community) HasDistance() bool {
	return c.DistanceMiles != nil
}

// FilterStep records one criterion of the filter engine.
type FilterStep struct {
	Name      string `json:"name"`
	Applied   bool   `json:"applied"`
	Remaining int    `json:"remaining"`
}

// GeoSummary tallies the outcome of the geospatial stage.
type GeoSummary struct {
	PreferredQueried  int                   `json:"preferred_queried"`
	PreferredResolved int                   `json:"preferred_resolved"`
	UsedDefault       bool                  `json:"used_default"`
	References        []Coordinate          `json:"references"`
	Resolved          int                   `json:"resolved"`
	Unresolved        int                   `json:"unresolved"`
	Failures          map[LookupFailure]int `json:"failures,omitempty"`
}

// ResultSet is the ordered set of communities that survived filtering.
type ResultSet struct {
	CatalogSize int          `json:"catalog_size"`
	Steps       []FilterStep `json:"filter_steps"`
	Geo         GeoSummary   `json:"geo"`
	Communities []Community  `json:"communities"`
	RankedAt    time.Time    `json:"ranked_at"`
}

// Len returns the number of ranked communities.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Communities)
}

// ByTier returns the communities in tier t, preserving ranked order.
func (r *ResultSet) ByTier(t Tier) []Community {
	if r == nil {
		return nil
	}
	var out []Community
	for _, c := range r.Communities {
		if c.Tier == t {
			out = append(out, c)
		}
	}
	return out
}
